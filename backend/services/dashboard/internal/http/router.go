package httpserver

import (
	"net/http"

	"equipviz/backend/services/dashboard/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	DashboardHandlers *handlers.DashboardHandlers
	UploadHandler     *handlers.UploadHandler
	FilesHandlers     *handlers.FilesHandlers
	PageHandler       http.HandlerFunc
	HealthHandler     http.HandlerFunc
	WSHandler         http.HandlerFunc
	MetricsHandler    http.Handler
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	mux.Handle("/", method(http.MethodGet, deps.PageHandler))

	mux.Handle("/api/state", method(http.MethodGet, http.HandlerFunc(deps.DashboardHandlers.State)))
	mux.Handle("/api/datasets", method(http.MethodGet, http.HandlerFunc(deps.DashboardHandlers.Datasets)))
	mux.Handle("/api/datasets/refresh", method(http.MethodPost, http.HandlerFunc(deps.DashboardHandlers.Refresh)))
	mux.Handle("/api/select", method(http.MethodPost, http.HandlerFunc(deps.DashboardHandlers.Select)))
	mux.Handle("/api/upload", method(http.MethodPost, http.HandlerFunc(deps.UploadHandler.Upload)))
	mux.Handle("/api/export", method(http.MethodPost, http.HandlerFunc(deps.DashboardHandlers.Export)))
	mux.Handle("/api/notification/dismiss", method(http.MethodPost, http.HandlerFunc(deps.DashboardHandlers.Dismiss)))

	mux.Handle(handlers.ChartsPrefix, method(http.MethodGet, http.HandlerFunc(deps.FilesHandlers.Chart)))
	mux.Handle(handlers.DownloadsPrefix, method(http.MethodGet, http.HandlerFunc(deps.FilesHandlers.Download)))

	if deps.WSHandler != nil {
		mux.Handle("/ws", method(http.MethodGet, deps.WSHandler))
	}
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.MetricsHandler))
	}

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
