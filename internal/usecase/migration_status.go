package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ShowMigrationStatus reports which discovered migrations are complete on a chain
type ShowMigrationStatus struct {
	migrations MigrationRepository
	records    MigrationRecord
}

// NewShowMigrationStatus creates a new migration status use case
func NewShowMigrationStatus(migrations MigrationRepository, records MigrationRecord) *ShowMigrationStatus {
	return &ShowMigrationStatus{
		migrations: migrations,
		records:    records,
	}
}

// MigrationStatusEntry describes one discovered migration
type MigrationStatusEntry struct {
	Name         string
	Dependencies []string
	Operations   int
	Status       models.MigrationStatus
	// Position is the 1-based place in the execution order
	Position int
}

// MigrationStatusResult lists every discovered migration in execution order
type MigrationStatusResult struct {
	Entries  []MigrationStatusEntry
	Pending  int
	Complete int
}

// Run reads the completion marker of every discovered migration
func (uc *ShowMigrationStatus) Run(ctx context.Context) (*MigrationStatusResult, error) {
	discovered, err := uc.migrations.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	completed, err := readCompletionMarkers(ctx, uc.records, discovered)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Migration, len(discovered))
	for _, m := range discovered {
		byName[m.Name] = m
	}

	plan, err := PlanMigrations(discovered, func(name string) bool { return completed[name] })
	if err != nil {
		return nil, fmt.Errorf("invalid migration graph: %w", err)
	}

	result := &MigrationStatusResult{}
	for i, name := range plan.Order {
		m := byName[name]
		entry := MigrationStatusEntry{
			Name:         name,
			Dependencies: m.Dependencies,
			Operations:   len(m.Operations),
			Status:       models.MigrationPending,
			Position:     i + 1,
		}
		if completed[name] {
			entry.Status = models.MigrationComplete
			result.Complete++
		} else {
			result.Pending++
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// readCompletionMarkers returns the completion state of every discovered migration
func readCompletionMarkers(ctx context.Context, records MigrationRecord, discovered []models.Migration) (map[string]bool, error) {
	completed := make(map[string]bool, len(discovered))
	for _, m := range discovered {
		done, err := records.IsComplete(ctx, m.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read completion marker for %s: %w", m.Name, err)
		}
		completed[m.Name] = done
	}
	return completed, nil
}
