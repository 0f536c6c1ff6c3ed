package reports

import (
	"context"
	"errors"

	"github.com/umtracker/platform/pkg/common/models"
)

var ErrReportNotFound = errors.New("report entry not found")

// Reporter is the write side of the report store.
type Reporter interface {
	Report(ctx context.Context, entry models.ImportReport) error
	Acknowledge(ctx context.Context, id string) error
	// Finish rewrites the message of an existing entry in place.
	Finish(ctx context.Context, id, message string) error
}

// Notifier is the read side of the report store.
type Notifier interface {
	GetAll(ctx context.Context) ([]models.ImportReport, error)
	// GetNew returns unacknowledged entries of the terminal type only.
	GetNew(ctx context.Context) ([]models.ImportReport, error)
	GetRun(ctx context.Context, runID string) ([]models.ImportReport, error)
}
