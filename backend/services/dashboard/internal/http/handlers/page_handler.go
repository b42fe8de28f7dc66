package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"equipviz/backend/libs/logging"
	"equipviz/backend/services/dashboard/internal/session"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	Title string
	View  session.View
}

// Snapshotter returns the current view.
type Snapshotter interface {
	Snapshot() session.View
}

// NewPageHandler returns the GET / handler rendering the dashboard page.
func NewPageHandler(views Snapshotter, logger *zap.Logger) http.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		data := pageData{Title: "Chemical Equipment Parameter Visualizer", View: views.Snapshot()}
		if err := pageTemplate.Execute(&buf, data); err != nil {
			logger.Error("render page failed", zap.Error(err))
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}
