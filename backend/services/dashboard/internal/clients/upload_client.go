package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/models"
)

// UploadClient posts CSV files to the backend.
type UploadClient struct {
	base *BaseClient
}

// NewUploadClient returns client.
func NewUploadClient(base *BaseClient) *UploadClient {
	return &UploadClient{base: base}
}

// Upload streams content as multipart fields "file" and "name" to POST /upload/ and
// returns the dataset the backend created.
func (c *UploadClient) Upload(ctx context.Context, name string, content io.Reader) (models.Dataset, error) {
	pr, pw := io.Pipe()
	defer pr.Close()

	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(writer, name, content))
	}()

	body, err := c.base.Call(ctx, "upload", http.MethodPost, "/upload/", pr, map[string]string{
		"Content-Type": writer.FormDataContentType(),
	})
	if err != nil {
		return models.Dataset{}, err
	}

	var ds models.Dataset
	if err := json.Unmarshal(body, &ds); err != nil {
		return models.Dataset{}, apperr.BackendUnavailable(fmt.Errorf("decode upload: %w", err))
	}
	return ds, nil
}

func writeForm(writer *multipart.Writer, name string, content io.Reader) error {
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := writer.WriteField("name", name); err != nil {
		return err
	}
	return writer.Close()
}
