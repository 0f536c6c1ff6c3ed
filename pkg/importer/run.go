package importer

import (
	"context"
	"strings"
	"time"

	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/common/retry"
	"github.com/umtracker/platform/pkg/csvcodec"
	"github.com/umtracker/platform/pkg/observability/metrics"
	"gorm.io/datatypes"
)

type run struct {
	reportID string
	fileName *string
	payload  []byte
}

// Summary is the per-run accounting. Rows equals Created + Updated + Errors.
type Summary struct {
	Rows    int
	Created int
	Updated int
	Errors  int
}

func (o *Orchestrator) runImport(ctx context.Context, r run) Summary {
	if o.sem != nil {
		if err := o.sem.Acquire(ctx, 1); err != nil {
			logger.Log.WithError(err).WithFields(o.logFields(r)).Error("import run abandoned before start")
			return Summary{}
		}
		defer o.sem.Release(1)
	}

	metrics.ImportRunsInFlight.Inc()
	defer metrics.ImportRunsInFlight.Dec()
	start := time.Now()

	log := logger.Log.WithFields(o.logFields(r))
	log.Info("import run started")

	var sum Summary
	for res := range csvcodec.Decode(r.payload) {
		sum.Rows++

		if res.Err != nil {
			sum.Errors++
			metrics.ObserveRow(metrics.OutcomeDecodeError)
			o.reportError(ctx, r, res.Line, res.Err, datatypes.JSONMap{"operation": "decode"})
			continue
		}

		c := res.Circuit
		if strings.TrimSpace(c.ID) == "" {
			c.ID = o.newID()
			if err := o.records.Create(ctx, c); err != nil {
				sum.Errors++
				metrics.ObserveRow(metrics.OutcomeApplyError)
				o.reportError(ctx, r, res.Line, err, datatypes.JSONMap{"operation": "create", "circuit_id": c.ID})
				continue
			}
			sum.Created++
			metrics.ObserveRow(metrics.OutcomeCreated)
			continue
		}

		if err := o.records.Update(ctx, c); err != nil {
			sum.Errors++
			metrics.ObserveRow(metrics.OutcomeApplyError)
			o.reportError(ctx, r, res.Line, err, datatypes.JSONMap{"operation": "update", "circuit_id": c.ID})
			continue
		}
		sum.Updated++
		metrics.ObserveRow(metrics.OutcomeUpdated)
	}

	o.finish(ctx, r, sum)
	metrics.ImportRunsFinished.Inc()
	metrics.ImportRunDuration.Observe(time.Since(start).Seconds())

	log.WithFields(map[string]interface{}{
		"rows":    sum.Rows,
		"created": sum.Created,
		"updated": sum.Updated,
		"errors":  sum.Errors,
	}).Info("import run finished")

	o.publish(ctx, r, sum)
	return sum
}

// reportError appends one error entry. A failed write is logged and dropped so
// the run keeps going.
func (o *Orchestrator) reportError(ctx context.Context, r run, line int, cause error, details datatypes.JSONMap) {
	entry := models.ImportReport{
		Type:     models.ReportTypeError,
		ID:       o.newID(),
		Message:  cause.Error(),
		FileName: r.fileName,
		RunID:    r.reportID,
		Details:  details,
	}
	if line > 0 {
		row := line
		entry.Row = &row
	}
	if err := o.reports.Report(ctx, entry); err != nil {
		logger.Log.WithError(err).WithFields(o.logFields(r)).WithField("row", line).
			Error("failed to write import error entry")
	}
}

func (o *Orchestrator) finish(ctx context.Context, r run, sum Summary) {
	message := finishMessage(sum.Errors)
	err := retry.Do(ctx, o.opts.FinishAttempts, o.opts.FinishBackoff, func() error {
		return o.reports.Finish(ctx, r.reportID, message)
	})
	if err != nil {
		logger.Log.WithError(err).WithFields(o.logFields(r)).
			Error("failed to write import terminal entry, report stays in progress")
	}
}

func (o *Orchestrator) publish(ctx context.Context, r run, sum Summary) {
	if o.opts.Events == nil {
		return
	}
	data := map[string]interface{}{
		"run_id":  r.reportID,
		"rows":    sum.Rows,
		"created": sum.Created,
		"updated": sum.Updated,
		"errors":  sum.Errors,
	}
	if r.fileName != nil {
		data["file_name"] = *r.fileName
	}
	if err := o.opts.Events.PublishEvent(ctx, EventImportFinished, eventSource, data); err != nil {
		logger.Log.WithError(err).WithFields(o.logFields(r)).Warn("failed to publish import event")
	}
}
