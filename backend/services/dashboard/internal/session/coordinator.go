// Package session owns the dashboard state: the dataset list, the selection and the
// loaded detail. All mutations go through Coordinator, which publishes a fresh View to
// subscribers after each one.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/registry"
	"equipviz/backend/services/dashboard/internal/upload"
	"equipviz/backend/services/dashboard/internal/viz"
)

var (
	// ErrSuperseded is returned by Select when a later selection replaced it before its
	// data arrived. Its result was discarded.
	ErrSuperseded = errors.New("session: selection superseded")
	// ErrLoading is returned by ExportSelected while a dataset is loading.
	ErrLoading = errors.New("session: dataset is loading")
)

const (
	msgBackendDown = "Error connecting to backend. Please ensure the server is running."
	msgLoadFailed  = "Error loading dataset data"
	msgLoadedFmt   = "Dataset loaded successfully! Found %d equipment records."
)

// Registry lists datasets and loads their details.
type Registry interface {
	ListDatasets(ctx context.Context) ([]models.Dataset, error)
	LoadDetail(ctx context.Context, datasetID int64) (registry.Detail, error)
}

// Exporter saves the report of a dataset.
type Exporter interface {
	Export(ctx context.Context, datasetID *int64) (string, error)
}

// Notifier shows a status message and reports the visible one.
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notification
	Current() (notify.Notification, bool)
}

// Uploads reports the upload area state.
type Uploads interface {
	State() upload.State
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSampleSize sets how many records the trend chart plots.
func WithSampleSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.sample = n
		}
	}
}

// WithKeymap replaces the default key bindings.
func WithKeymap(k Keymap) Option {
	return func(c *Coordinator) {
		c.keymap = k
	}
}

type state struct {
	datasets []models.Dataset
	selected *int64
	loading  bool
	detail   *detail
}

// Coordinator serializes state changes behind a mutex and does I/O outside it.
type Coordinator struct {
	registry Registry
	exporter Exporter
	notifier Notifier
	logger   *zap.Logger
	sample   int
	keymap   Keymap

	// publishMu orders snapshot-and-deliver so subscribers see increasing versions.
	publishMu sync.Mutex

	mu       sync.Mutex
	st       state
	gen      uint64
	loads    uint64
	version  uint64
	uploads  Uploads
	subs     map[int]func(View)
	nextSubs int
}

// New returns a coordinator with an empty dataset list and nothing selected.
func New(reg Registry, exporter Exporter, notifier Notifier, logger *zap.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		registry: reg,
		exporter: exporter,
		notifier: notifier,
		logger:   logger,
		sample:   viz.TrendSampleSize,
		keymap:   DefaultKeymap(),
		subs:     make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AttachUploads includes u's state in every View.
func (c *Coordinator) AttachUploads(u Uploads) {
	c.mu.Lock()
	c.uploads = u
	c.mu.Unlock()
}

// Start loads the dataset list and selects the newest dataset.
func (c *Coordinator) Start(ctx context.Context) error {
	return c.RefreshDatasets(ctx)
}

// RefreshDatasets reloads the dataset list. With nothing selected yet, the first dataset
// is selected and loaded.
func (c *Coordinator) RefreshDatasets(ctx context.Context) error {
	list, err := c.registry.ListDatasets(ctx)
	if err != nil {
		c.notifier.Notify(msgBackendDown, notify.SeverityError)
		c.Publish()
		return err
	}

	c.mu.Lock()
	c.st.datasets = list
	autoSelect := c.st.selected == nil && len(list) > 0
	c.mu.Unlock()
	c.Publish()

	if !autoSelect {
		return nil
	}
	err = c.Select(ctx, list[0].ID)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

// OnUploaded refreshes the dataset list after an upload.
func (c *Coordinator) OnUploaded(ctx context.Context, ds models.Dataset) {
	c.logger.Debug("refreshing after upload", zap.Int64("dataset_id", ds.ID))
	_ = c.RefreshDatasets(ctx)
}

// Select makes datasetID the selection and loads its summary and equipment. Both replace
// the previous detail together. If a later Select starts before this one finishes, this
// result is dropped and ErrSuperseded returned. On failure the previous detail stays and
// the selection returns to it.
func (c *Coordinator) Select(ctx context.Context, datasetID int64) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	id := datasetID
	c.st.selected = &id
	c.st.loading = true
	c.mu.Unlock()
	c.Publish()

	d, err := c.registry.LoadDetail(ctx, datasetID)

	var loaded *detail
	if err == nil {
		loaded = buildDetail(datasetID, d.Summary, d.Equipment, c.sample)
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded dataset load", zap.Int64("dataset_id", datasetID))
		return ErrSuperseded
	}
	c.st.loading = false
	if err != nil {
		if prev := c.st.detail; prev != nil {
			prevID := prev.datasetID
			c.st.selected = &prevID
		}
		c.mu.Unlock()
		c.notifier.Notify(msgLoadFailed, notify.SeverityError)
		c.Publish()
		return err
	}
	c.loads++
	loaded.version = c.loads
	c.st.detail = loaded
	c.mu.Unlock()

	c.logger.Info("dataset loaded", zap.Int64("dataset_id", datasetID), zap.Int("equipment", len(loaded.equipment)))
	c.notifier.Notify(fmt.Sprintf(msgLoadedFmt, len(loaded.equipment)), notify.SeveritySuccess)
	c.Publish()
	return nil
}

// ExportSelected exports the selected dataset's report. Unless the selected dataset is the
// loaded one it does nothing.
func (c *Coordinator) ExportSelected(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.st.loading {
		c.mu.Unlock()
		return "", ErrLoading
	}
	var id *int64
	if c.exportableLocked() {
		v := *c.st.selected
		id = &v
	}
	c.mu.Unlock()

	return c.exporter.Export(ctx, id)
}

func (c *Coordinator) exportableLocked() bool {
	return c.st.selected != nil && c.st.detail != nil && c.st.detail.datasetID == *c.st.selected
}

// HandleKey resolves a key press. The second result reports whether the event was consumed.
func (c *Coordinator) HandleKey(e KeyEvent) (Action, bool) {
	return c.keymap.Resolve(e)
}

// Charts returns the chart data of the loaded dataset.
func (c *Coordinator) Charts() (viz.ChartBundle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.detail == nil {
		return viz.ChartBundle{}, false
	}
	return c.st.detail.charts, true
}

// Datasets returns the last fetched dataset list.
func (c *Coordinator) Datasets() []models.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Dataset{}, c.st.datasets...)
}

// Snapshot returns the current View.
func (c *Coordinator) Snapshot() View {
	c.mu.Lock()
	v := c.snapshotLocked()
	uploads := c.uploads
	c.mu.Unlock()

	if n, ok := c.notifier.Current(); ok {
		v.Notification = &n
	}
	if uploads != nil {
		v.Upload = uploads.State()
	}
	return v
}

func (c *Coordinator) snapshotLocked() View {
	c.version++
	v := View{
		Version:  c.version,
		Datasets: append([]models.Dataset{}, c.st.datasets...),
		Loading:  c.st.loading,
		Cards:    []viz.SummaryCard{},
		Table:    viz.BuildTable(nil),
	}
	if c.st.selected != nil {
		id := *c.st.selected
		v.SelectedDatasetID = &id
		v.CanExport = !c.st.loading && c.exportableLocked()
	}
	if d := c.st.detail; d != nil && !c.st.loading {
		summary := d.summary
		charts := d.charts
		v.Summary = &summary
		v.Charts = &charts
		v.ChartsVersion = d.version
		v.Cards = d.cards
		v.Table = d.table
		v.HasData = len(d.equipment) > 0
	}
	return v
}

// Subscribe registers fn to receive every published View. Call the returned func to stop.
func (c *Coordinator) Subscribe(fn func(View)) func() {
	c.mu.Lock()
	id := c.nextSubs
	c.nextSubs++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Publish sends the current View to all subscribers. Concurrent calls deliver in
// version order.
func (c *Coordinator) Publish() {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	v := c.Snapshot()

	c.mu.Lock()
	subs := make([]func(View), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}
