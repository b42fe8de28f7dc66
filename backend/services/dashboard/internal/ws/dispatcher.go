package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"equipviz/backend/services/dashboard/internal/session"
	"equipviz/backend/services/dashboard/internal/upload"
)

// Outgoing message types.
const (
	TypeView           = "view"
	TypeDownload       = "download"
	TypeOpenFilePicker = "open-file-picker"
)

// Incoming event types.
const (
	EventKey     = "key"
	EventSelect  = "select"
	EventDismiss = "dismiss"
	EventDrag    = "drag"
	EventDrop    = "drop"
	EventFile    = "file"
)

// ErrUnknownEvent is returned for an event type the dispatcher does not handle.
var ErrUnknownEvent = errors.New("ws: unknown event")

// Session is the part of the coordinator browser events drive.
type Session interface {
	Select(ctx context.Context, datasetID int64) error
	HandleKey(e session.KeyEvent) (session.Action, bool)
}

// UploadTarget receives drag state changes and the files the user picks or drops.
type UploadTarget interface {
	DragEnter()
	DragOver()
	DragLeave()
	Drop(f *upload.File) error
	Select(f upload.File) error
}

// Dismisser clears the visible notification.
type Dismisser interface {
	Dismiss()
}

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	ID int64 `json:"id"`
}

type dragPayload struct {
	State string `json:"state"`
}

// filePayload describes a browser-side file; its content arrives later through /api/upload.
type filePayload struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

func (p filePayload) file() upload.File {
	return upload.File{Name: p.Name, ContentType: p.ContentType, Size: p.Size}
}

// Dispatcher turns browser events into coordinator calls.
type Dispatcher struct {
	session   Session
	uploads   UploadTarget
	dismisser Dismisser
	logger    *zap.Logger
}

// NewDispatcher returns an event dispatcher.
func NewDispatcher(s Session, uploads UploadTarget, dismisser Dismisser, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{session: s, uploads: uploads, dismisser: dismisser, logger: logger}
}

// Process handles one event. Selections load in the background; their outcome reaches
// the browser as a published view.
func (d *Dispatcher) Process(ctx context.Context, clientID string, raw []byte) ([]byte, error) {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch ev.Type {
	case EventKey:
		var key session.KeyEvent
		if err := decodePayload(ev.Payload, &key); err != nil {
			return nil, err
		}
		action, consumed := d.session.HandleKey(key)
		if !consumed || action != session.ActionOpenFilePicker {
			return nil, nil
		}
		return Encode(TypeOpenFilePicker, nil)

	case EventSelect:
		var p selectPayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			return nil, err
		}
		selectCtx := context.WithoutCancel(ctx)
		go func() {
			if err := d.session.Select(selectCtx, p.ID); err != nil && !errors.Is(err, session.ErrSuperseded) {
				d.logger.Debug("select from client failed", zap.String("client_id", clientID), zap.Int64("dataset_id", p.ID), zap.Error(err))
			}
		}()
		return nil, nil

	case EventDismiss:
		d.dismisser.Dismiss()
		return nil, nil

	case EventDrag:
		var p dragPayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			return nil, err
		}
		switch p.State {
		case "enter":
			d.uploads.DragEnter()
		case "over":
			d.uploads.DragOver()
		case "leave":
			d.uploads.DragLeave()
		default:
			return nil, fmt.Errorf("drag state %q", p.State)
		}
		return nil, nil

	case EventDrop, EventFile:
		var p filePayload
		if err := decodePayload(ev.Payload, &p); err != nil {
			return nil, err
		}
		f := p.file()
		// Rejections already reached the user as a notification.
		if ev.Type == EventDrop {
			_ = d.uploads.Drop(&f)
		} else {
			_ = d.uploads.Select(f)
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

func decodePayload(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
