package clients

import (
	"context"
	"fmt"

	"equipviz/backend/services/dashboard/internal/models"
)

// DatasetsClient reads datasets and their details from the backend.
type DatasetsClient struct {
	base *BaseClient
}

// NewDatasetsClient returns client.
func NewDatasetsClient(base *BaseClient) *DatasetsClient {
	return &DatasetsClient{base: base}
}

// List fetches GET /datasets/ in server order.
func (c *DatasetsClient) List(ctx context.Context) ([]models.Dataset, error) {
	var out []models.Dataset
	if err := c.base.GetJSON(ctx, "datasets", "/datasets/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary fetches GET /datasets/{id}/summary/.
func (c *DatasetsClient) Summary(ctx context.Context, datasetID int64) (models.Summary, error) {
	var out models.Summary
	if err := c.base.GetJSON(ctx, "summary", fmt.Sprintf("/datasets/%d/summary/", datasetID), &out); err != nil {
		return models.Summary{}, err
	}
	return out, nil
}

// Equipment fetches GET /datasets/{id}/equipment/ and stamps each record with its dataset.
func (c *DatasetsClient) Equipment(ctx context.Context, datasetID int64) ([]models.EquipmentRecord, error) {
	var out []models.EquipmentRecord
	if err := c.base.GetJSON(ctx, "equipment", fmt.Sprintf("/datasets/%d/equipment/", datasetID), &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DatasetID = datasetID
	}
	return out, nil
}
