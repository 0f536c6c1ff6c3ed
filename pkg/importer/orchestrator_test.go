package importer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/common/models"
)

type fakeRecords struct {
	mu        sync.Mutex
	existing  map[string]models.Circuit
	creates   []models.Circuit
	updates   []models.Circuit
	createErr error
	delay     time.Duration
	active    atomic.Int32
	peak      atomic.Int32
}

func newFakeRecords(ids ...string) *fakeRecords {
	f := &fakeRecords{existing: map[string]models.Circuit{}}
	for _, id := range ids {
		f.existing[id] = models.Circuit{ID: id}
	}
	return f
}

func (f *fakeRecords) track() func() {
	n := f.active.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.active.Add(-1) }
}

func (f *fakeRecords) Create(_ context.Context, c models.Circuit) error {
	defer f.track()()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, c)
	if f.createErr != nil {
		return f.createErr
	}
	f.existing[c.ID] = c
	return nil
}

func (f *fakeRecords) Update(_ context.Context, c models.Circuit) error {
	defer f.track()()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, c)
	if _, ok := f.existing[c.ID]; !ok {
		return circuits.ErrCircuitNotFound
	}
	f.existing[c.ID] = c
	return nil
}

func (f *fakeRecords) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates)
}

type fakeReports struct {
	mu          sync.Mutex
	entries     []models.ImportReport
	finished    map[string]string
	reportErr   error
	finishFails int
	finishCalls int
}

func newFakeReports() *fakeReports {
	return &fakeReports{finished: map[string]string{}}
}

func (f *fakeReports) Report(_ context.Context, entry models.ImportReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeReports) Finish(_ context.Context, id, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishCalls++
	if f.finishCalls <= f.finishFails {
		return errors.New("transient")
	}
	f.finished[id] = message
	return nil
}

func (f *fakeReports) errorsFor(runID string) []models.ImportReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ImportReport
	for _, e := range f.entries {
		if e.Type == models.ReportTypeError && e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

type fakeEvents struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (f *fakeEvents) PublishEvent(_ context.Context, eventType, _ string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eventType == EventImportFinished {
		f.events = append(f.events, data)
	}
	return nil
}

func strPtr(s string) *string { return &s }

func startAndWait(t *testing.T, o *Orchestrator, payload string) Acceptance {
	t.Helper()
	acc, err := o.StartImport(context.Background(), Upload{
		Content:     []byte(payload),
		FileName:    strPtr("circuits.csv"),
		ContentType: "text/csv",
	})
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return acc
}

func TestImportThreeRowScenario(t *testing.T) {
	records := newFakeRecords()
	reports := newFakeReports()
	o := NewOrchestrator(records, reports, Options{})

	payload := "id,state,site_name\n" +
		",NY,HQ\n" +
		"01UNKNOWN,CA,Lab\n" +
		"broken\n"
	acc := startAndWait(t, o, payload)

	if got := reports.finished[acc.ReportID]; got != "Finished import with 2 errors" {
		t.Fatalf("unexpected terminal message %q", got)
	}
	if len(records.creates) != 1 || len(records.updates) != 1 {
		t.Fatalf("expected one create and one update, got %d/%d", len(records.creates), len(records.updates))
	}
	if len(records.creates[0].ID) != 26 {
		t.Fatalf("created row should get a fresh id, got %q", records.creates[0].ID)
	}

	errs := reports.errorsFor(acc.ReportID)
	if len(errs) != 2 {
		t.Fatalf("expected 2 error entries, got %d", len(errs))
	}
	if errs[0].Row == nil || *errs[0].Row != 3 || errs[0].Details["operation"] != "update" {
		t.Fatalf("unexpected update error entry: %+v", errs[0])
	}
	if errs[1].Row == nil || *errs[1].Row != 4 || errs[1].Details["operation"] != "decode" {
		t.Fatalf("unexpected decode error entry: %+v", errs[1])
	}
	for _, e := range errs {
		if e.FileName == nil || *e.FileName != "circuits.csv" {
			t.Fatalf("error entry lost the file name: %+v", e)
		}
	}
}

func TestImportBeginEntryIsWrittenBeforeReturning(t *testing.T) {
	reports := newFakeReports()
	o := NewOrchestrator(newFakeRecords(), reports, Options{})

	acc := startAndWait(t, o, "id\n")

	if len(reports.entries) == 0 {
		t.Fatalf("no begin entry written")
	}
	begin := reports.entries[0]
	if begin.ID != acc.ReportID || begin.Type != models.ReportTypeFinish || begin.Message != models.ReportMessageInProgress {
		t.Fatalf("unexpected begin entry %+v", begin)
	}
	if reports.finished[acc.ReportID] != "Finished import with 0 errors" {
		t.Fatalf("empty import should finish with zero errors, got %q", reports.finished[acc.ReportID])
	}
}

func TestImportBeginWriteFailureStartsNothing(t *testing.T) {
	records := newFakeRecords()
	reports := newFakeReports()
	reports.reportErr = errors.New("db down")
	o := NewOrchestrator(records, reports, Options{})

	_, err := o.StartImport(context.Background(), Upload{
		Content:     []byte("id,state\n,NY\n"),
		ContentType: "text/csv",
	})
	if !errors.Is(err, ErrReportInit) {
		t.Fatalf("expected ErrReportInit, got %v", err)
	}
	if IsValidationError(err) {
		t.Fatalf("begin failure must not look like a client error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := o.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if records.calls() != 0 {
		t.Fatalf("expected zero record store calls, got %d", records.calls())
	}
}

func TestImportRejectsNonCSV(t *testing.T) {
	o := NewOrchestrator(newFakeRecords(), newFakeReports(), Options{})

	for _, ct := range []string{"", "application/json", "text/plain", "not a type;;"} {
		_, err := o.StartImport(context.Background(), Upload{Content: []byte("id\n"), ContentType: ct})
		if !IsValidationError(err) {
			t.Fatalf("content type %q: expected validation error, got %v", ct, err)
		}
	}

	if _, err := o.StartImport(context.Background(), Upload{Content: []byte("id\n"), ContentType: "text/csv; charset=utf-8"}); err != nil {
		t.Fatalf("charset parameter should be accepted: %v", err)
	}
	_ = o.Wait(context.Background())
}

func TestImportCreateFailureDoesNotFallThroughToUpdate(t *testing.T) {
	records := newFakeRecords()
	records.createErr = circuits.ErrDuplicateCircuit
	reports := newFakeReports()
	o := NewOrchestrator(records, reports, Options{})

	acc := startAndWait(t, o, "id,state\n  ,NY\n")

	if len(records.updates) != 0 {
		t.Fatalf("blank id must never be updated")
	}
	if reports.finished[acc.ReportID] != "Finished import with 1 errors" {
		t.Fatalf("unexpected terminal message %q", reports.finished[acc.ReportID])
	}
	errs := reports.errorsFor(acc.ReportID)
	if len(errs) != 1 || errs[0].Details["operation"] != "create" {
		t.Fatalf("unexpected error entries %+v", errs)
	}
}

func TestRunAccountsForEveryRow(t *testing.T) {
	records := newFakeRecords("a", "b")
	reports := newFakeReports()
	o := NewOrchestrator(records, reports, Options{})

	payload := "id,state\n" +
		"a,NY\n" +
		",CA\n" +
		"zz,TX\n" +
		"b,WA\n" +
		"x,y,z\n"
	sum := o.runImport(context.Background(), run{reportID: "run", payload: []byte(payload)})

	if sum.Rows != 5 {
		t.Fatalf("expected 5 rows, got %d", sum.Rows)
	}
	if sum.Created+sum.Updated+sum.Errors != sum.Rows {
		t.Fatalf("rows do not add up: %+v", sum)
	}
	if sum.Created != 1 || sum.Updated != 2 || sum.Errors != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(reports.errorsFor("run")) != sum.Errors {
		t.Fatalf("error entries should match the error count")
	}
	if !strings.HasSuffix(reports.finished["run"], "with 2 errors") {
		t.Fatalf("unexpected terminal message %q", reports.finished["run"])
	}
}

func TestRunSwallowsErrorEntryFailures(t *testing.T) {
	reports := newFakeReports()
	reports.reportErr = errors.New("insert failed")
	o := NewOrchestrator(newFakeRecords(), reports, Options{})

	sum := o.runImport(context.Background(), run{reportID: "run", payload: []byte("id\nmissing\n")})
	if sum.Errors != 1 {
		t.Fatalf("expected the failed row to be counted, got %+v", sum)
	}
	if reports.finished["run"] != "Finished import with 1 errors" {
		t.Fatalf("terminal write should still happen, got %q", reports.finished["run"])
	}
}

func TestRunRetriesTerminalWrite(t *testing.T) {
	reports := newFakeReports()
	reports.finishFails = 2
	o := NewOrchestrator(newFakeRecords(), reports, Options{FinishAttempts: 3, FinishBackoff: time.Millisecond})

	o.runImport(context.Background(), run{reportID: "run", payload: []byte("id\n")})
	if reports.finishCalls != 3 {
		t.Fatalf("expected 3 finish attempts, got %d", reports.finishCalls)
	}
	if reports.finished["run"] == "" {
		t.Fatalf("terminal entry never written")
	}
}

func TestRunPublishesFinishedEvent(t *testing.T) {
	events := &fakeEvents{}
	o := NewOrchestrator(newFakeRecords(), newFakeReports(), Options{Events: events})

	acc := startAndWait(t, o, "id,state\n,NY\n,CA\n")

	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev["run_id"] != acc.ReportID || ev["created"] != 2 || ev["errors"] != 0 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestConcurrentRunsAreBounded(t *testing.T) {
	records := newFakeRecords()
	records.delay = 5 * time.Millisecond
	o := NewOrchestrator(records, newFakeReports(), Options{MaxConcurrentRuns: 1})

	for i := 0; i < 4; i++ {
		if _, err := o.StartImport(context.Background(), Upload{
			Content:     []byte("id,state\n,NY\n,CA\n"),
			ContentType: "text/csv",
		}); err != nil {
			t.Fatalf("StartImport: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if records.peak.Load() > 1 {
		t.Fatalf("expected at most one run draining at a time, saw %d", records.peak.Load())
	}
}

func TestRunSurvivesRequestCancellation(t *testing.T) {
	records := newFakeRecords()
	reports := newFakeReports()
	o := NewOrchestrator(records, reports, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	acc, err := o.StartImport(ctx, Upload{Content: []byte("id,state\n,NY\n"), ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := o.Wait(waitCtx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if reports.finished[acc.ReportID] != "Finished import with 0 errors" {
		t.Fatalf("run should complete after the request is gone, got %q", reports.finished[acc.ReportID])
	}
}
