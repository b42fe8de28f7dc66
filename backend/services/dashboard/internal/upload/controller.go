package upload

import (
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/notify"
)

var (
	// ErrBusy is returned, without any side effect, while another upload is in flight.
	ErrBusy = errors.New("upload: already in progress")
	// ErrNoFile is returned when uploading with nothing selected.
	ErrNoFile = errors.New("upload: no file selected")
)

const (
	msgInvalidFile  = "Please upload a CSV file"
	msgInvalidDrop  = "Please drop a valid CSV file"
	msgNoFile       = "Please select a file"
	msgUnreadable   = "Could not read the selected file"
	msgUploaded     = "File uploaded and processed successfully!"
	msgUploadFailed = "Error uploading file. Make sure the backend is running and file format is correct."
)

// Uploader sends file content to the backend.
type Uploader interface {
	Upload(ctx context.Context, name string, content io.Reader) (models.Dataset, error)
}

// Notifier shows a status message.
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notification
}

// State is the upload area as the view renders it.
type State struct {
	Uploading   bool   `json:"uploading"`
	DragActive  bool   `json:"drag_active"`
	PendingName string `json:"pending_name,omitempty"`
	PendingSize int64  `json:"pending_size,omitempty"`
}

// Controller validates and submits CSV files, one at a time.
type Controller struct {
	uploader Uploader
	notifier Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	uploading  bool
	dragActive bool
	pending    *File
	onUploaded func(context.Context, models.Dataset)
	onChange   func()
}

// NewController returns an upload controller.
func NewController(uploader Uploader, notifier Notifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{uploader: uploader, notifier: notifier, logger: logger}
}

// OnUploaded sets the hook run after every successful upload, before the success message.
func (c *Controller) OnUploaded(fn func(context.Context, models.Dataset)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUploaded = fn
}

// OnChange sets the hook run whenever State changes.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// State returns the current upload area state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Uploading: c.uploading, DragActive: c.dragActive}
	if c.pending != nil {
		st.PendingName = c.pending.Name
		st.PendingSize = c.pending.Size
	}
	return st
}

// Busy reports whether an upload is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uploading
}

// DragEnter marks the drop zone active.
func (c *Controller) DragEnter() { c.setDrag(true) }

// DragOver keeps the drop zone active.
func (c *Controller) DragOver() { c.setDrag(true) }

// DragLeave clears the active drop zone.
func (c *Controller) DragLeave() { c.setDrag(false) }

// Drop clears the active state and keeps f as the pending file when it is a CSV.
// A missing or non-CSV file is reported and never uploaded.
func (c *Controller) Drop(f *File) error {
	c.setDrag(false)
	if f == nil || !IsCSV(*f) {
		c.notifier.Notify(msgInvalidDrop, notify.SeverityError)
		return apperr.InvalidFormat(msgInvalidDrop)
	}
	c.setPending(f)
	return nil
}

// Select keeps f as the pending file when it is a CSV.
func (c *Controller) Select(f File) error {
	if !IsCSV(f) {
		c.notifier.Notify(msgInvalidFile, notify.SeverityError)
		return apperr.InvalidFormat(msgInvalidFile)
	}
	c.setPending(&f)
	return nil
}

// Clear forgets the pending file.
func (c *Controller) Clear() {
	c.setPending(nil)
}

// UploadPending submits the pending file.
func (c *Controller) UploadPending(ctx context.Context) (models.Dataset, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		c.notifier.Notify(msgNoFile, notify.SeverityError)
		return models.Dataset{}, ErrNoFile
	}
	// A file staged from its metadata alone has no bytes here to send.
	if pending.Open == nil {
		c.setPending(nil)
		c.notifier.Notify(msgNoFile, notify.SeverityError)
		return models.Dataset{}, apperr.InvalidFormat(msgNoFile)
	}
	return c.Submit(ctx, *pending)
}

// Submit validates f and uploads it. While another upload runs it returns ErrBusy and
// does nothing else.
func (c *Controller) Submit(ctx context.Context, f File) (models.Dataset, error) {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return models.Dataset{}, ErrBusy
	}
	if !IsCSV(f) {
		c.mu.Unlock()
		c.notifier.Notify(msgInvalidFile, notify.SeverityError)
		return models.Dataset{}, apperr.InvalidFormat(msgInvalidFile)
	}
	if f.Open == nil {
		c.mu.Unlock()
		c.notifier.Notify(msgNoFile, notify.SeverityError)
		return models.Dataset{}, apperr.InvalidFormat(msgNoFile)
	}
	c.uploading = true
	c.mu.Unlock()
	c.changed()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
		c.changed()
	}()

	ds, err := c.send(ctx, f)
	if err != nil {
		c.logger.Warn("upload failed", zap.String("file", f.Name), zap.Error(err))
		c.notifier.Notify(apperr.MessageOf(err, msgUploadFailed), notify.SeverityError)
		return models.Dataset{}, err
	}

	c.logger.Info("upload succeeded",
		zap.String("file", f.Name),
		zap.Int64("dataset_id", ds.ID),
		zap.Int("total_count", ds.TotalCount),
	)

	c.mu.Lock()
	c.pending = nil
	hook := c.onUploaded
	c.mu.Unlock()

	if hook != nil {
		hook(ctx, ds)
	}
	c.notifier.Notify(msgUploaded, notify.SeveritySuccess)
	return ds, nil
}

func (c *Controller) send(ctx context.Context, f File) (models.Dataset, error) {
	rc, err := f.Open()
	if err != nil {
		c.logger.Warn("open upload failed", zap.String("file", f.Name), zap.Error(err))
		return models.Dataset{}, apperr.InvalidFormat(msgUnreadable)
	}
	defer rc.Close()
	return c.uploader.Upload(ctx, f.Name, rc)
}

func (c *Controller) setDrag(active bool) {
	c.mu.Lock()
	changed := c.dragActive != active
	c.dragActive = active
	c.mu.Unlock()
	if changed {
		c.changed()
	}
}

func (c *Controller) setPending(f *File) {
	c.mu.Lock()
	c.pending = f
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) changed() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
