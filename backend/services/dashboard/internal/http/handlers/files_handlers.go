package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"equipviz/backend/libs/logging"
	"equipviz/backend/services/dashboard/internal/export"
	"equipviz/backend/services/dashboard/internal/viz"
)

// Route prefixes for generated files.
const (
	ChartsPrefix    = "/charts/"
	DownloadsPrefix = "/downloads/"
)

// ChartSource returns the chart data of the loaded dataset.
type ChartSource interface {
	Charts() (viz.ChartBundle, bool)
}

// FilesHandlers serve rendered charts and saved reports.
type FilesHandlers struct {
	charts   ChartSource
	renderer *viz.Renderer
	saver    *export.FileSaver
	logger   *zap.Logger
}

// NewFilesHandlers returns handler.
func NewFilesHandlers(charts ChartSource, renderer *viz.Renderer, saver *export.FileSaver, logger *zap.Logger) *FilesHandlers {
	return &FilesHandlers{charts: charts, renderer: renderer, saver: saver, logger: logging.OrNop(logger)}
}

// Chart handles GET /charts/{kind}.svg.
func (h *FilesHandlers) Chart(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, ChartsPrefix)
	if !strings.HasSuffix(name, ".svg") {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	kind, err := viz.ParseKind(strings.TrimSuffix(name, ".svg"))
	if err != nil {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	bundle, ok := h.charts.Charts()
	if !ok {
		writeError(w, http.StatusNotFound, "no dataset loaded")
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, kind, bundle); err != nil {
		h.logger.Error("chart render failed", zap.String("kind", string(kind)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}
	w.Header().Set("Content-Type", viz.SVGContentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// Download handles GET /downloads/{file}.
func (h *FilesHandlers) Download(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, DownloadsPrefix)
	file, info, err := h.saver.Open(name)
	switch {
	case errors.Is(err, export.ErrBadFileName):
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	case errors.Is(err, os.ErrNotExist):
		writeError(w, http.StatusNotFound, "file not found")
		return
	case err != nil:
		h.logger.Error("open download failed", zap.String("file", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "file unavailable")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), file)
}
