package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"equipviz/backend/services/dashboard/internal/app"
	"equipviz/backend/services/dashboard/internal/config"
	"equipviz/backend/services/dashboard/internal/session"
	"equipviz/backend/services/dashboard/internal/testbackend"
)

const plantCSV = `Equipment Name,Type,Flowrate,Pressure,Temperature
Pump-1,Pump,120.5,5.2,110
Valve-1,Valve,60,4.1,95
`

func start(t *testing.T, cfg *config.Config) string {
	t.Helper()
	application, err := app.New(cfg, nil, app.WithFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		application.Close()
	})
	return "http://" + ln.Addr().String()
}

func getView(t *testing.T, base string) session.View {
	t.Helper()
	resp, err := http.Get(base + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var v session.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAppLoadsNewestDatasetAtStartup(t *testing.T) {
	backend := testbackend.New(t, testbackend.WithBasicAuth("analyst", "s3cret"))
	backend.Seed(t, "older.csv", plantCSV)
	newest := backend.Seed(t, "newest.csv", plantCSV)

	cfg := config.Defaults()
	cfg.Backend.URL = backend.URL()
	cfg.Auth.Mode = config.AuthBasic
	cfg.Auth.Username = "analyst"
	cfg.Auth.Password = "s3cret"
	base := start(t, cfg)

	require.Eventually(t, func() bool {
		return getView(t, base).HasData
	}, 3*time.Second, 20*time.Millisecond)

	v := getView(t, base)
	require.Equal(t, newest.ID, *v.SelectedDatasetID)
	require.Len(t, v.Datasets, 2)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `equipviz_backend_requests_total{endpoint="datasets"`)
}

func TestAppPushesViewsOverWebSocket(t *testing.T) {
	backend := testbackend.New(t)
	ds := backend.Seed(t, "plant.csv", plantCSV)

	cfg := config.Defaults()
	cfg.Backend.URL = backend.URL()
	base := start(t, cfg)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":    "select",
		"payload": map[string]int64{"id": ds.ID},
	}))

	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg struct {
			Type    string       `json:"type"`
			Payload session.View `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "view" && msg.Payload.HasData && !msg.Payload.Loading {
			require.Len(t, msg.Payload.Table.Rows, 2)
			return
		}
	}
}

func TestAppRejectsMissingCredentials(t *testing.T) {
	cfg := config.Defaults()
	cfg.Auth.Mode = config.AuthToken
	_, err := app.New(cfg, nil)
	require.Error(t, err)
}
