package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umtracker/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type reportModel struct {
	ID        string            `gorm:"column:id;primaryKey;size:26"`
	Type      string            `gorm:"column:type;size:16;index:idx_import_reports_unseen,priority:1"`
	Message   string            `gorm:"column:message"`
	FileName  *string           `gorm:"column:file_name"`
	Seen      bool              `gorm:"column:seen;index:idx_import_reports_unseen,priority:2"`
	RunID     string            `gorm:"column:run_id;size:26;index"`
	Row       *int              `gorm:"column:line"`
	Details   datatypes.JSONMap `gorm:"column:details"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

func (reportModel) TableName() string {
	return "import_reports"
}

func (m reportModel) toReport() models.ImportReport {
	return models.ImportReport{
		Type:      m.Type,
		ID:        m.ID,
		Message:   m.Message,
		FileName:  m.FileName,
		Seen:      m.Seen,
		RunID:     m.RunID,
		Row:       m.Row,
		Details:   m.Details,
		CreatedAt: m.CreatedAt,
	}
}

// Repository implements Reporter and Notifier on postgres.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&reportModel{})
}

func (r *Repository) Report(ctx context.Context, entry models.ImportReport) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	row := reportModel{
		ID:        entry.ID,
		Type:      entry.Type,
		Message:   entry.Message,
		FileName:  entry.FileName,
		Seen:      entry.Seen,
		RunID:     entry.RunID,
		Row:       entry.Row,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert report entry %s: %w", entry.ID, err)
	}
	return nil
}

func (r *Repository) Acknowledge(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&reportModel{}).
		Where("id = ?", id).
		Update("seen", true)
	if result.Error != nil {
		return fmt.Errorf("acknowledge report entry %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *Repository) Finish(ctx context.Context, id, message string) error {
	result := r.db.WithContext(ctx).Model(&reportModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"type":    models.ReportTypeFinish,
			"message": message,
		})
	if result.Error != nil {
		return fmt.Errorf("finish report %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (r *Repository) GetAll(ctx context.Context) ([]models.ImportReport, error) {
	return r.list(ctx, r.db.WithContext(ctx))
}

func (r *Repository) GetNew(ctx context.Context) ([]models.ImportReport, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Where("type = ? AND seen = ?", models.ReportTypeFinish, false))
}

func (r *Repository) GetRun(ctx context.Context, runID string) ([]models.ImportReport, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("run_id = ?", runID))
}

func (r *Repository) list(_ context.Context, query *gorm.DB) ([]models.ImportReport, error) {
	var rows []reportModel
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list report entries: %w", err)
	}
	out := make([]models.ImportReport, len(rows))
	for i, row := range rows {
		out[i] = row.toReport()
	}
	return out, nil
}
