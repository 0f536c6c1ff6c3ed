package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/umtracker/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	repo := NewRepository(db)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo, mock
}

var reportColumns = []string{"id", "type", "message", "file_name", "seen", "run_id", "line", "details", "created_at"}

func TestRepositoryReportInserts(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`INSERT INTO "import_reports"`).WillReturnResult(sqlmock.NewResult(0, 1))

	line := 3
	err := repo.Report(context.Background(), models.ImportReport{
		ID:      "01E",
		Type:    models.ReportTypeError,
		Message: "circuit not found",
		RunID:   "01R",
		Row:     &line,
		Details: datatypes.JSONMap{"operation": "update"},
	})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRepositoryReportPropagatesError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`INSERT INTO "import_reports"`).WillReturnError(errors.New("disk full"))

	if err := repo.Report(context.Background(), models.ImportReport{ID: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRepositoryAcknowledge(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "import_reports" SET "seen"=\$1 WHERE id = \$2`).
		WithArgs(true, "01R").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Acknowledge(context.Background(), "01R"); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
}

func TestRepositoryAcknowledgeUnknown(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "import_reports" SET "seen"`).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Acknowledge(context.Background(), "nope"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestRepositoryFinish(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(`UPDATE "import_reports" SET .* WHERE id = \$3`).
		WithArgs("Finished import with 0 errors", models.ReportTypeFinish, "01R").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Finish(context.Background(), "01R", "Finished import with 0 errors"); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRepositoryGetAllKeepsInsertionOrder(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "import_reports" ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("01R", "finish", "Finished import with 2 errors", "a.csv", false, "01R", nil, nil, created).
			AddRow("01S", "error", "record not found", nil, false, "01R", 2, nil, created.Add(time.Millisecond)).
			AddRow("01T", "error", "wrong number of fields", nil, false, "01R", 3, nil, created.Add(2*time.Millisecond)))

	got, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Type != models.ReportTypeFinish || got[1].Type != models.ReportTypeError || got[2].Type != models.ReportTypeError {
		t.Fatalf("unexpected order: %+v", got)
	}
	if *got[1].Row != 2 || *got[2].Row != 3 {
		t.Fatalf("error entries out of file order: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRepositoryGetNewFiltersTerminalUnseen(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "import_reports" WHERE type = \$1 AND seen = \$2 ORDER BY created_at, id`).
		WithArgs(models.ReportTypeFinish, false).
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("01R", "finish", "In progress", "a.csv", false, "01R", nil, nil, created))

	got, err := repo.GetNew(context.Background())
	if err != nil {
		t.Fatalf("GetNew: %v", err)
	}
	if len(got) != 1 || got[0].Message != "In progress" || got[0].FileName == nil || *got[0].FileName != "a.csv" {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[0].Row != nil {
		t.Fatalf("begin entry should carry no row")
	}
}

func TestRepositoryGetRun(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT \* FROM "import_reports" WHERE run_id = \$1`).
		WithArgs("01R").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("01R", "finish", "Finished import with 1 errors", nil, false, "01R", nil, nil, created).
			AddRow("01S", "error", "boom", nil, false, "01R", 2, []byte(`{"operation":"create"}`), created))

	got, err := repo.GetRun(context.Background(), "01R")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got) != 2 || got[1].Row == nil || *got[1].Row != 2 {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[1].Details["operation"] != "create" {
		t.Fatalf("details not decoded: %+v", got[1].Details)
	}
}
