package importer

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/common/logger"
	"github.com/umtracker/platform/pkg/common/models"
	"github.com/umtracker/platform/pkg/observability/metrics"
	"golang.org/x/sync/semaphore"
)

const (
	EventImportFinished = "import.finished"
	eventSource         = "circuit-importer"
)

// RecordStore is the subset of circuits.Store a run writes through.
type RecordStore interface {
	Create(ctx context.Context, c models.Circuit) error
	Update(ctx context.Context, c models.Circuit) error
}

// ReportWriter is the subset of reports.Reporter a run writes through.
type ReportWriter interface {
	Report(ctx context.Context, entry models.ImportReport) error
	Finish(ctx context.Context, id, message string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

type Options struct {
	// MaxConcurrentRuns bounds how many runs drain at once. Zero means no bound.
	MaxConcurrentRuns int
	// FinishAttempts is how many times the terminal write is tried.
	FinishAttempts int
	FinishBackoff  time.Duration
	// Events receives an import.finished event per run when set.
	Events EventPublisher
}

type Upload struct {
	Content     []byte
	FileName    *string
	ContentType string
}

type Acceptance struct {
	ReportID string
	FileName *string
}

type Orchestrator struct {
	records RecordStore
	reports ReportWriter
	opts    Options
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	newID   func() string
}

func NewOrchestrator(records RecordStore, reports ReportWriter, opts Options) *Orchestrator {
	if opts.FinishAttempts <= 0 {
		opts.FinishAttempts = 3
	}
	if opts.FinishBackoff <= 0 {
		opts.FinishBackoff = 200 * time.Millisecond
	}
	o := &Orchestrator{
		records: records,
		reports: reports,
		opts:    opts,
		newID:   circuits.NewID,
	}
	if opts.MaxConcurrentRuns > 0 {
		o.sem = semaphore.NewWeighted(int64(opts.MaxConcurrentRuns))
	}
	return o
}

// StartImport writes the begin entry and hands the payload to a background
// run. It returns as soon as the begin entry is durable.
func (o *Orchestrator) StartImport(ctx context.Context, upload Upload) (Acceptance, error) {
	if err := checkContentType(upload.ContentType); err != nil {
		return Acceptance{}, err
	}

	reportID := o.newID()
	begin := models.ImportReport{
		Type:     models.ReportTypeFinish,
		ID:       reportID,
		Message:  models.ReportMessageInProgress,
		FileName: upload.FileName,
		RunID:    reportID,
	}
	if err := o.reports.Report(ctx, begin); err != nil {
		logger.Log.WithError(err).WithField("report_id", reportID).Error("failed to write import begin entry")
		return Acceptance{}, fmt.Errorf("%w: %v", ErrReportInit, err)
	}

	metrics.ImportRunsStarted.Inc()
	r := run{
		reportID: reportID,
		fileName: upload.FileName,
		payload:  upload.Content,
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runImport(context.WithoutCancel(ctx), r)
	}()

	return Acceptance{ReportID: reportID, FileName: upload.FileName}, nil
}

// Wait blocks until every started run has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func checkContentType(contentType string) error {
	if strings.TrimSpace(contentType) == "" {
		return ValidationError{reason: errMissingContentType}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ValidationError{reason: fmt.Errorf("invalid content type %q: %w", contentType, err)}
	}
	if mediaType != "text/csv" {
		return ValidationError{reason: errUnsupportedType}
	}
	return nil
}

func finishMessage(errorCount int) string {
	return fmt.Sprintf("Finished import with %d errors", errorCount)
}

func (o *Orchestrator) logFields(r run) logrus.Fields {
	fields := logrus.Fields{"report_id": r.reportID}
	if r.fileName != nil {
		fields["file_name"] = *r.fileName
	}
	return fields
}
