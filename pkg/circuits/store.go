package circuits

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/umtracker/platform/pkg/common/models"
)

var (
	ErrCircuitNotFound  = errors.New("circuit not found")
	ErrDuplicateCircuit = errors.New("circuit with this id already exists")
)

// Store is the record store used by the HTTP layer and the importer.
type Store interface {
	GetAll(ctx context.Context) ([]models.Circuit, error)
	Get(ctx context.Context, id string) (*models.Circuit, error)
	Create(ctx context.Context, c models.Circuit) error
	// Update replaces every attribute of the circuit with the same id.
	Update(ctx context.Context, c models.Circuit) error
}

// NewID returns a fresh ULID string.
func NewID() string {
	return ulid.Make().String()
}
