package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"equipviz/backend/libs/logging"
	"equipviz/backend/services/dashboard/internal/models"
	"equipviz/backend/services/dashboard/internal/upload"
)

const maxUploadBytes = 32 << 20

// UploadHandler accepts browser file uploads and passes them to the upload controller.
type UploadHandler struct {
	uploads *upload.Controller
	logger  *zap.Logger
}

// NewUploadHandler returns handler.
func NewUploadHandler(uploads *upload.Controller, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, logger: logging.OrNop(logger)}
}

// Upload handles POST /api/upload with a multipart "file" field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	_, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// Nothing attached: fall back to the file picked or dropped earlier.
		ds, err := h.uploads.UploadPending(r.Context())
		h.respond(w, ds, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file field")
		return
	}

	f := upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}

	ds, err := h.uploads.Submit(r.Context(), f)
	h.respond(w, ds, err)
}

func (h *UploadHandler) respond(w http.ResponseWriter, ds models.Dataset, err error) {
	switch {
	case errors.Is(err, upload.ErrBusy):
		writeError(w, http.StatusConflict, "an upload is already in progress")
	case errors.Is(err, upload.ErrNoFile):
		writeError(w, http.StatusBadRequest, "Please select a file")
	case err != nil:
		h.logger.Debug("upload rejected", zap.Error(err))
		writeAppError(w, err, "upload failed")
	default:
		writeJSON(w, http.StatusCreated, ds)
	}
}
