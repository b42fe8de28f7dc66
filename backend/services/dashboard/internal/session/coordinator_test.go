package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/registry"
	"equipviz/backend/services/dashboard/internal/session"
)

type registryStub struct {
	mu       sync.Mutex
	datasets []models.Dataset
	listErr  error
	details  map[int64]registry.Detail
	errs     map[int64]error
	gates    map[int64]chan struct{}
	loads    []int64
}

func newRegistryStub() *registryStub {
	return &registryStub{
		details: make(map[int64]registry.Detail),
		errs:    make(map[int64]error),
		gates:   make(map[int64]chan struct{}),
	}
}

func (r *registryStub) add(id int64, name string, equipment ...models.EquipmentRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets = append(r.datasets, models.Dataset{ID: id, Name: name, TotalCount: len(equipment)})
	r.details[id] = registry.Detail{
		DatasetID: id,
		Summary:   models.Summary{DatasetID: id, DatasetName: name, TotalCount: len(equipment)},
		Equipment: equipment,
	}
}

func (r *registryStub) ListDatasets(context.Context) ([]models.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]models.Dataset(nil), r.datasets...), nil
}

func (r *registryStub) LoadDetail(ctx context.Context, id int64) (registry.Detail, error) {
	r.mu.Lock()
	r.loads = append(r.loads, id)
	gate := r.gates[id]
	d, err := r.details[id], r.errs[id]
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return registry.Detail{}, ctx.Err()
		}
	}
	if err != nil {
		return registry.Detail{}, err
	}
	return d, nil
}

func (r *registryStub) loaded() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.loads...)
}

type exporterStub struct {
	calls []*int64
}

func (e *exporterStub) Export(_ context.Context, id *int64) (string, error) {
	e.calls = append(e.calls, id)
	if id == nil {
		return "", nil
	}
	return "report.pdf", nil
}

func pump(name string) models.EquipmentRecord {
	return models.EquipmentRecord{EquipmentName: name, EquipmentType: "Pump", Flowrate: models.Float(10)}
}

func newCoordinator(t *testing.T, reg *registryStub) (*session.Coordinator, *notify.Controller, *exporterStub) {
	t.Helper()
	n := notify.New(time.Minute, nil)
	exp := &exporterStub{}
	return session.New(reg, exp, n, nil), n, exp
}

func TestStartSelectsFirstDataset(t *testing.T) {
	reg := newRegistryStub()
	reg.add(7, "newest.csv", pump("P-1"), pump("P-2"))
	reg.add(3, "older.csv", pump("P-9"))
	c, n, _ := newCoordinator(t, reg)

	require.NoError(t, c.Start(context.Background()))

	v := c.Snapshot()
	require.Len(t, v.Datasets, 2)
	require.Equal(t, int64(7), *v.SelectedDatasetID)
	require.False(t, v.Loading)
	require.True(t, v.HasData)
	require.True(t, v.CanExport)
	require.Equal(t, int64(7), v.Summary.DatasetID)
	require.Len(t, v.Table.Rows, 2)
	require.Equal(t, []string{"P-1", "P-2"}, v.Charts.Trend.Labels)

	cur, ok := n.Current()
	require.True(t, ok)
	require.Equal(t, "Dataset loaded successfully! Found 2 equipment records.", cur.Message)
	require.Equal(t, notify.SeveritySuccess, cur.Severity)
}

func TestStartWithoutDatasets(t *testing.T) {
	c, _, _ := newCoordinator(t, newRegistryStub())

	require.NoError(t, c.Start(context.Background()))
	v := c.Snapshot()
	require.Empty(t, v.Datasets)
	require.Nil(t, v.SelectedDatasetID)
	require.False(t, v.HasData)
	require.False(t, v.CanExport)
}

func TestRefreshFailureNotifies(t *testing.T) {
	reg := newRegistryStub()
	reg.listErr = apperr.FetchFailed(apperr.BackendUnavailable(errors.New("refused")))
	c, n, _ := newCoordinator(t, reg)

	err := c.RefreshDatasets(context.Background())
	require.ErrorIs(t, err, apperr.ErrFetchFailed)
	cur, ok := n.Current()
	require.True(t, ok)
	require.Equal(t, "Error connecting to backend. Please ensure the server is running.", cur.Message)
	require.Equal(t, notify.SeverityError, cur.Severity)
}

func TestRefreshKeepsExistingSelection(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	c, _, _ := newCoordinator(t, reg)
	require.NoError(t, c.Start(context.Background()))

	reg.add(2, "b.csv", pump("B"))
	c.OnUploaded(context.Background(), models.Dataset{ID: 2})

	v := c.Snapshot()
	require.Len(t, v.Datasets, 2)
	require.Equal(t, int64(1), *v.SelectedDatasetID)
	require.Equal(t, []int64{1}, reg.loaded())
}

func TestLatestSelectionWins(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	reg.add(2, "b.csv", pump("B1"), pump("B2"))
	gateA := make(chan struct{})
	reg.gates[1] = gateA
	c, _, _ := newCoordinator(t, reg)

	errA := make(chan error, 1)
	go func() { errA <- c.Select(context.Background(), 1) }()
	require.Eventually(t, func() bool { return len(reg.loaded()) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, c.Snapshot().Loading)

	require.NoError(t, c.Select(context.Background(), 2))
	close(gateA)
	require.ErrorIs(t, <-errA, session.ErrSuperseded)

	v := c.Snapshot()
	require.Equal(t, int64(2), *v.SelectedDatasetID)
	require.Equal(t, int64(2), v.Summary.DatasetID)
	require.Len(t, v.Table.Rows, 2)
	require.False(t, v.Loading)
}

func TestFailedSelectKeepsPreviousDetail(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	reg.add(2, "b.csv", pump("B"))
	reg.errs[2] = apperr.PartialLoad(apperr.ServerRejected(500, "boom"))
	c, n, _ := newCoordinator(t, reg)

	require.NoError(t, c.Select(context.Background(), 1))
	before := c.Snapshot()

	err := c.Select(context.Background(), 2)
	require.ErrorIs(t, err, apperr.ErrPartialLoad)

	after := c.Snapshot()
	require.Equal(t, int64(1), *after.SelectedDatasetID)
	require.Equal(t, before.Summary, after.Summary)
	require.Equal(t, before.Table, after.Table)
	require.Equal(t, before.ChartsVersion, after.ChartsVersion)
	require.False(t, after.Loading)

	cur, _ := n.Current()
	require.Equal(t, "Error loading dataset data", cur.Message)
}

func TestFailedFirstSelectHasNoData(t *testing.T) {
	reg := newRegistryStub()
	reg.add(4, "bad.csv")
	reg.errs[4] = apperr.PartialLoad(errors.New("timeout"))
	c, _, _ := newCoordinator(t, reg)

	require.Error(t, c.Select(context.Background(), 4))
	v := c.Snapshot()
	require.Equal(t, int64(4), *v.SelectedDatasetID)
	require.Nil(t, v.Summary)
	require.False(t, v.HasData)
}

func TestFailedFirstSelectCannotExport(t *testing.T) {
	reg := newRegistryStub()
	reg.add(4, "bad.csv")
	reg.errs[4] = apperr.PartialLoad(errors.New("timeout"))
	c, _, exp := newCoordinator(t, reg)

	require.Error(t, c.Select(context.Background(), 4))
	require.False(t, c.Snapshot().CanExport)

	name, err := c.ExportSelected(context.Background())
	require.NoError(t, err)
	require.Empty(t, name)
	require.Len(t, exp.calls, 1)
	require.Nil(t, exp.calls[0])
}

func TestFailedSelectExportsPreviousDataset(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "good.csv", pump("A"))
	reg.add(2, "bad.csv")
	reg.errs[2] = apperr.PartialLoad(errors.New("timeout"))
	c, _, exp := newCoordinator(t, reg)

	require.NoError(t, c.Select(context.Background(), 1))
	require.Error(t, c.Select(context.Background(), 2))
	require.True(t, c.Snapshot().CanExport)

	_, err := c.ExportSelected(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), *exp.calls[0])
}

func TestConcurrentPublishKeepsVersionOrder(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	c, _, _ := newCoordinator(t, reg)

	var (
		mu       sync.Mutex
		versions []uint64
	)
	c.Subscribe(func(v session.View) {
		mu.Lock()
		defer mu.Unlock()
		versions = append(versions, v.Version)
	})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Publish()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Select(context.Background(), 1)
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(versions), 200)
	for i := 1; i < len(versions); i++ {
		require.Greater(t, versions[i], versions[i-1])
	}
}

func TestEmptyDatasetHasNoData(t *testing.T) {
	reg := newRegistryStub()
	reg.add(5, "empty.csv")
	c, _, _ := newCoordinator(t, reg)

	require.NoError(t, c.Select(context.Background(), 5))
	v := c.Snapshot()
	require.NotNil(t, v.Summary)
	require.False(t, v.HasData)
	require.NotNil(t, v.Table.Rows)
}

func TestExportSelected(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	gate := make(chan struct{})
	c, _, exp := newCoordinator(t, reg)

	name, err := c.ExportSelected(context.Background())
	require.NoError(t, err)
	require.Empty(t, name)
	require.Nil(t, exp.calls[0])

	reg.gates[1] = gate
	done := make(chan error, 1)
	go func() { done <- c.Select(context.Background(), 1) }()
	require.Eventually(t, func() bool { return c.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	_, err = c.ExportSelected(context.Background())
	require.ErrorIs(t, err, session.ErrLoading)

	close(gate)
	require.NoError(t, <-done)
	name, err = c.ExportSelected(context.Background())
	require.NoError(t, err)
	require.Equal(t, "report.pdf", name)
	require.Equal(t, int64(1), *exp.calls[1])
}

func TestSubscribersReceiveViews(t *testing.T) {
	reg := newRegistryStub()
	reg.add(1, "a.csv", pump("A"))
	c, _, _ := newCoordinator(t, reg)

	var (
		mu    sync.Mutex
		views []session.View
	)
	unsubscribe := c.Subscribe(func(v session.View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	})

	require.NoError(t, c.Start(context.Background()))
	mu.Lock()
	count := len(views)
	last := views[count-1]
	mu.Unlock()
	require.GreaterOrEqual(t, count, 3)
	require.True(t, last.HasData)
	require.NotNil(t, last.Notification)

	unsubscribe()
	c.Publish()
	mu.Lock()
	require.Len(t, views, count)
	mu.Unlock()
}

func TestHandleKey(t *testing.T) {
	c, _, _ := newCoordinator(t, newRegistryStub())

	action, consumed := c.HandleKey(session.KeyEvent{Key: "u", Ctrl: true})
	require.True(t, consumed)
	require.Equal(t, session.ActionOpenFilePicker, action)

	_, consumed = c.HandleKey(session.KeyEvent{Key: "U", Ctrl: true})
	require.True(t, consumed)

	_, consumed = c.HandleKey(session.KeyEvent{Key: "u"})
	require.False(t, consumed)

	_, consumed = c.HandleKey(session.KeyEvent{Key: "u", Ctrl: true, Shift: true})
	require.False(t, consumed)
}
