package reports

import (
	"context"

	"github.com/umtracker/platform/pkg/common/models"
)

// Notifications is what the HTTP layer reads to surface import outcomes.
type Notifications struct {
	notifier Notifier
	reporter Reporter
}

func NewNotifications(notifier Notifier, reporter Reporter) *Notifications {
	return &Notifications{notifier: notifier, reporter: reporter}
}

func (n *Notifications) ListAll(ctx context.Context) ([]models.ImportReport, error) {
	return nonNil(n.notifier.GetAll(ctx))
}

func (n *Notifications) ListUnseen(ctx context.Context) ([]models.ImportReport, error) {
	return nonNil(n.notifier.GetNew(ctx))
}

func (n *Notifications) ListRun(ctx context.Context, runID string) ([]models.ImportReport, error) {
	return nonNil(n.notifier.GetRun(ctx, runID))
}

// Acknowledge marks an entry seen. Acknowledging an already seen entry succeeds.
func (n *Notifications) Acknowledge(ctx context.Context, id string) error {
	return n.reporter.Acknowledge(ctx, id)
}

// nonNil keeps JSON responses as [] rather than null.
func nonNil(entries []models.ImportReport, err error) ([]models.ImportReport, error) {
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ImportReport{}
	}
	return entries, nil
}
