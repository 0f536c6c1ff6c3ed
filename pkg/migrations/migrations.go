package migrations

import (
	"fmt"

	"github.com/umtracker/platform/pkg/circuits"
	"github.com/umtracker/platform/pkg/identity"
	"github.com/umtracker/platform/pkg/reports"
	"gorm.io/gorm"
)

type migrator interface {
	AutoMigrate() error
}

// Run creates or updates every table the service owns.
func Run(db *gorm.DB) error {
	steps := []struct {
		name string
		repo migrator
	}{
		{"circuits", circuits.NewRepository(db)},
		{"import_reports", reports.NewRepository(db)},
		{"users", identity.NewRepository(db)},
	}
	for _, step := range steps {
		if err := step.repo.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate %s: %w", step.name, err)
		}
	}
	return nil
}
