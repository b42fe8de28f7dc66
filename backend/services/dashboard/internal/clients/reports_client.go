package clients

import (
	"context"
	"fmt"
	"net/http"
)

// ReportsClient downloads generated reports.
type ReportsClient struct {
	base *BaseClient
}

// NewReportsClient returns client.
func NewReportsClient(base *BaseClient) *ReportsClient {
	return &ReportsClient{base: base}
}

// PDF fetches the binary report of GET /datasets/{id}/pdf/.
func (c *ReportsClient) PDF(ctx context.Context, datasetID int64) ([]byte, error) {
	return c.base.Call(ctx, "pdf", http.MethodGet, fmt.Sprintf("/datasets/%d/pdf/", datasetID), nil, map[string]string{
		"Accept": "application/pdf",
	})
}
