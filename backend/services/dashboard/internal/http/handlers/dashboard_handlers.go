package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"equipviz/backend/libs/logging"
	"equipviz/backend/services/dashboard/internal/notify"
	"equipviz/backend/services/dashboard/internal/session"
	"equipviz/backend/services/dashboard/internal/ws"
)

// Broadcaster pushes a typed message to every connected browser.
type Broadcaster interface {
	BroadcastMessage(msgType string, payload interface{}) error
}

// Download tells the browser where a saved report can be fetched.
type Download struct {
	File string `json:"file"`
	URL  string `json:"url"`
}

// DashboardHandlers serve the JSON API over the session coordinator.
type DashboardHandlers struct {
	session     *session.Coordinator
	notifier    *notify.Controller
	broadcaster Broadcaster
	logger      *zap.Logger
}

// NewDashboardHandlers returns handler.
func NewDashboardHandlers(s *session.Coordinator, notifier *notify.Controller, broadcaster Broadcaster, logger *zap.Logger) *DashboardHandlers {
	return &DashboardHandlers{session: s, notifier: notifier, broadcaster: broadcaster, logger: logging.OrNop(logger)}
}

// State handles GET /api/state.
func (h *DashboardHandlers) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Datasets handles GET /api/datasets.
func (h *DashboardHandlers) Datasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Datasets())
}

// Refresh handles POST /api/datasets/refresh.
func (h *DashboardHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RefreshDatasets(r.Context()); err != nil {
		writeAppError(w, err, "failed to load datasets")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Datasets())
}

// Select handles POST /api/select?id=.
func (h *DashboardHandlers) Select(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid dataset id")
		return
	}

	err = h.session.Select(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrSuperseded):
		writeError(w, http.StatusConflict, "selection superseded")
	case err != nil:
		writeAppError(w, err, "Error loading dataset data")
	default:
		writeJSON(w, http.StatusOK, h.session.Snapshot())
	}
}

// Export handles POST /api/export.
func (h *DashboardHandlers) Export(w http.ResponseWriter, r *http.Request) {
	name, err := h.session.ExportSelected(r.Context())
	switch {
	case errors.Is(err, session.ErrLoading):
		writeError(w, http.StatusConflict, "dataset is still loading")
		return
	case err != nil:
		writeAppError(w, err, "Error generating PDF report")
		return
	case name == "":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	dl := Download{File: name, URL: DownloadsPrefix + name}
	if h.broadcaster != nil {
		if err := h.broadcaster.BroadcastMessage(ws.TypeDownload, dl); err != nil {
			h.logger.Warn("download broadcast failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, dl)
}

// Dismiss handles POST /api/notification/dismiss.
func (h *DashboardHandlers) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.notifier.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}
