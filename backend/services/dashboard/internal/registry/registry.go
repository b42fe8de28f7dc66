package registry

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/models"
)

// Fetcher is the backend surface the registry reads from.
type Fetcher interface {
	List(ctx context.Context) ([]models.Dataset, error)
	Summary(ctx context.Context, datasetID int64) (models.Summary, error)
	Equipment(ctx context.Context, datasetID int64) ([]models.EquipmentRecord, error)
}

// Detail is the summary and equipment of one dataset, always loaded together.
type Detail struct {
	DatasetID int64
	Summary   models.Summary
	Equipment []models.EquipmentRecord
}

// Client lists datasets and loads their details.
type Client struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// New returns a registry client.
func New(fetcher Fetcher, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{fetcher: fetcher, logger: logger}
}

// ListDatasets returns the datasets in the order the backend sent them.
func (c *Client) ListDatasets(ctx context.Context) ([]models.Dataset, error) {
	list, err := c.fetcher.List(ctx)
	if err != nil {
		c.logger.Warn("list datasets failed", zap.Error(err))
		return nil, apperr.FetchFailed(err)
	}
	return list, nil
}

// LoadDetail fetches summary and equipment concurrently. Either failure fails the whole
// load with a PartialLoad error and no data.
func (c *Client) LoadDetail(ctx context.Context, datasetID int64) (Detail, error) {
	var (
		summary   models.Summary
		equipment []models.EquipmentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := c.fetcher.Summary(gctx, datasetID)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		e, err := c.fetcher.Equipment(gctx, datasetID)
		if err != nil {
			return err
		}
		equipment = e
		return nil
	})
	if err := g.Wait(); err != nil {
		c.logger.Warn("load dataset detail failed", zap.Int64("dataset_id", datasetID), zap.Error(err))
		return Detail{}, apperr.PartialLoad(err)
	}

	if equipment == nil {
		equipment = []models.EquipmentRecord{}
	}
	return Detail{DatasetID: datasetID, Summary: summary, Equipment: equipment}, nil
}
