package export_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/clients"
	"equipviz/backend/services/dashboard/internal/export"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/testbackend"
)

const plantCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120.5,5.2,110
`

type message struct {
	text     string
	severity notify.Severity
}

type notifierStub struct {
	mu   sync.Mutex
	seen []message
}

func (n *notifierStub) Notify(text string, severity notify.Severity) notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, message{text, severity})
	return notify.Notification{Message: text, Severity: severity}
}

type fixture struct {
	backend  *testbackend.Backend
	fs       afero.Fs
	saver    *export.FileSaver
	notifier *notifierStub
	ctrl     *export.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := testbackend.New(t)
	base := clients.NewBaseClient(backend.URL()+"/", clients.NewDefaultHTTPClient(2*time.Second))
	fs := afero.NewMemMapFs()
	saver := export.NewFileSaver(fs, "/downloads")
	n := &notifierStub{}
	return &fixture{
		backend:  backend,
		fs:       fs,
		saver:    saver,
		notifier: n,
		ctrl:     export.NewController(clients.NewReportsClient(base), saver, n, nil),
	}
}

func TestExportSavesReport(t *testing.T) {
	f := newFixture(t)
	ds := f.backend.Seed(t, "plant.csv", plantCSV)

	name, err := f.ctrl.Export(context.Background(), &ds.ID)
	require.NoError(t, err)
	require.Equal(t, export.ReportFileName(ds.ID), name)

	data, err := afero.ReadFile(f.fs, "/downloads/"+name)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(data[:4]))

	require.Equal(t, []message{
		{"Generating PDF report...", notify.SeverityInfo},
		{"PDF report downloaded successfully!", notify.SeveritySuccess},
	}, f.notifier.seen)
}

func TestExportWithoutSelectionIsNoop(t *testing.T) {
	f := newFixture(t)

	name, err := f.ctrl.Export(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, name)
	require.Empty(t, f.notifier.seen)
	require.Zero(t, f.backend.Requests(testbackend.RoutePDF))
}

func TestExportFailureIsNotRetried(t *testing.T) {
	f := newFixture(t)
	ds := f.backend.Seed(t, "plant.csv", plantCSV)
	f.backend.Fail(testbackend.RoutePDF, http.StatusInternalServerError)

	_, err := f.ctrl.Export(context.Background(), &ds.ID)
	require.ErrorIs(t, err, apperr.ErrExportFailed)
	require.ErrorIs(t, err, apperr.ErrServerRejected)
	require.Equal(t, 1, f.backend.Requests(testbackend.RoutePDF))
	require.Equal(t, []message{
		{"Generating PDF report...", notify.SeverityInfo},
		{"Error generating PDF report", notify.SeverityError},
	}, f.notifier.seen)

	exists, err := afero.Exists(f.fs, "/downloads/"+export.ReportFileName(ds.ID))
	require.NoError(t, err)
	require.False(t, exists)
}

type failingSaver struct{}

func (failingSaver) Save(string, []byte) error { return errors.New("disk full") }

func TestExportSaveFailure(t *testing.T) {
	f := newFixture(t)
	ds := f.backend.Seed(t, "plant.csv", plantCSV)
	base := clients.NewBaseClient(f.backend.URL()+"/", clients.NewDefaultHTTPClient(2*time.Second))
	ctrl := export.NewController(clients.NewReportsClient(base), failingSaver{}, f.notifier, nil)

	_, err := ctrl.Export(context.Background(), &ds.ID)
	require.ErrorIs(t, err, apperr.ErrExportFailed)
	require.Equal(t, notify.SeverityError, f.notifier.seen[len(f.notifier.seen)-1].severity)
}

func TestFileSaverOpen(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.saver.Save("equipment_report_1.pdf", []byte("%PDF-1.4")))

	file, info, err := f.saver.Open("equipment_report_1.pdf")
	require.NoError(t, err)
	defer file.Close()
	require.Equal(t, int64(8), info.Size())
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(body))

	_, _, err = f.saver.Open("missing.pdf")
	require.ErrorIs(t, err, os.ErrNotExist)

	for _, bad := range []string{"", "..", "../etc/passwd", `a\b.pdf`} {
		_, _, err = f.saver.Open(bad)
		require.ErrorIs(t, err, export.ErrBadFileName, bad)
	}
	require.ErrorIs(t, f.saver.Save("x/y.pdf", nil), export.ErrBadFileName)
}
