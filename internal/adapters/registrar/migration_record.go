package registrar

import (
	"context"

	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MigrationRecord stores completion markers as registrar bools under
// "migration/<name>"
type MigrationRecord struct {
	registrar usecase.Registrar
}

// NewMigrationRecord creates a migration record backed by the registrar
func NewMigrationRecord(registrar usecase.Registrar) *MigrationRecord {
	return &MigrationRecord{registrar: registrar}
}

func (m *MigrationRecord) IsComplete(ctx context.Context, migration string) (bool, error) {
	return m.registrar.GetBool(ctx, models.MigrationKey(migration))
}

func (m *MigrationRecord) MarkComplete(ctx context.Context, migration string) error {
	return m.registrar.SetBool(ctx, models.MigrationKey(migration), true)
}

var _ usecase.MigrationRecord = (*MigrationRecord)(nil)
