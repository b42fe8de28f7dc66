// Package export downloads the backend's PDF report for a dataset and saves it.
package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"equipviz/backend/services/dashboard/internal/apperr"
	"equipviz/backend/services/dashboard/internal/notify"
)

const (
	msgGenerating = "Generating PDF report..."
	msgDownloaded = "PDF report downloaded successfully!"
	msgFailed     = "Error generating PDF report"
)

// ReportFetcher downloads a dataset's PDF report.
type ReportFetcher interface {
	PDF(ctx context.Context, datasetID int64) ([]byte, error)
}

// Saver persists a downloaded report under a file name.
type Saver interface {
	Save(name string, data []byte) error
}

// Notifier shows a status message.
type Notifier interface {
	Notify(message string, severity notify.Severity) notify.Notification
}

// Controller runs report exports.
type Controller struct {
	reports  ReportFetcher
	saver    Saver
	notifier Notifier
	logger   *zap.Logger
}

// NewController returns an export controller.
func NewController(reports ReportFetcher, saver Saver, notifier Notifier, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{reports: reports, saver: saver, notifier: notifier, logger: logger}
}

// ReportFileName is the saved name of a dataset's report.
func ReportFileName(datasetID int64) string {
	return fmt.Sprintf("equipment_report_%d.pdf", datasetID)
}

// Export downloads and saves the report of datasetID, returning the saved file name.
// A nil id does nothing. Failures are not retried.
func (c *Controller) Export(ctx context.Context, datasetID *int64) (string, error) {
	if datasetID == nil {
		return "", nil
	}
	id := *datasetID

	c.notifier.Notify(msgGenerating, notify.SeverityInfo)

	data, err := c.reports.PDF(ctx, id)
	if err == nil {
		err = c.saver.Save(ReportFileName(id), data)
	}
	if err != nil {
		c.logger.Warn("report export failed", zap.Int64("dataset_id", id), zap.Error(err))
		c.notifier.Notify(msgFailed, notify.SeverityError)
		return "", apperr.ExportFailed(err)
	}

	name := ReportFileName(id)
	c.logger.Info("report exported", zap.Int64("dataset_id", id), zap.String("file", name), zap.Int("bytes", len(data)))
	c.notifier.Notify(msgDownloaded, notify.SeveritySuccess)
	return name, nil
}
