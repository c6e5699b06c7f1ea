package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-migrate/internal/domain"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
)

// ErrRunCancelled is returned when the operator declines to broadcast
var ErrRunCancelled = errors.New("migration run cancelled")

// RunMigrations executes pending migrations against a chain
type RunMigrations struct {
	migrations MigrationRepository
	records    MigrationRecord
	registrar  Registrar
	builder    *ContractFactoryBuilder
	resolver   *AddressResolver
	chain      ChainClient
	waiter     TransactionWaiter
	confirmer  Confirmer
	progress   ProgressSink
	log        *slog.Logger
}

// NewRunMigrations creates a new run migrations use case
func NewRunMigrations(
	migrations MigrationRepository,
	records MigrationRecord,
	registrar Registrar,
	builder *ContractFactoryBuilder,
	resolver *AddressResolver,
	chain ChainClient,
	waiter TransactionWaiter,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *RunMigrations {
	return &RunMigrations{
		migrations: migrations,
		records:    records,
		registrar:  registrar,
		builder:    builder,
		resolver:   resolver,
		chain:      chain,
		waiter:     waiter,
		confirmer:  confirmer,
		progress:   progress,
		log:        log,
	}
}

// RunMigrationsParams contains parameters for a migration run
type RunMigrationsParams struct {
	Network string
	// DryRun plans and reports without submitting anything
	DryRun bool
	// Confirm asks the Confirmer before the first transaction is sent
	Confirm bool
}

// MigrationRunResult contains the result of a migration run
type MigrationRunResult struct {
	Plan     *MigrationPlan
	Executed []*MigrationResult
	Failed   *MigrationResult
	// Deployed holds every contract deployed during the run
	Deployed map[string]common.Address
	Success  bool
	DryRun   bool
}

// MigrationResult contains the result of executing a single migration
type MigrationResult struct {
	Name       string
	Status     models.MigrationStatus
	Operations []*OperationResult
	Error      error
}

// OperationResult records what a single operation did on chain
type OperationResult struct {
	Index     int
	Operation models.Operation
	TxHash    common.Hash
	// Address is the deployed or registered address, zero for plain transactions
	Address common.Address
}

// Run loads the discovered migrations, reads their completion markers and
// executes the pending ones strictly in plan order. The first failure halts
// the run; the failing migration gets no completion marker so the next run
// resumes with it.
func (uc *RunMigrations) Run(ctx context.Context, params RunMigrationsParams) (*MigrationRunResult, error) {
	discovered, err := uc.migrations.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	completed, err := readCompletionMarkers(ctx, uc.records, discovered)
	if err != nil {
		return nil, err
	}

	plan, err := PlanMigrations(discovered, func(name string) bool { return completed[name] })
	if err != nil {
		return nil, fmt.Errorf("invalid migration graph: %w", err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(plan.Pending),
		Metadata: plan,
	})

	run := NewRunState()
	result := &MigrationRunResult{
		Plan:     plan,
		Executed: make([]*MigrationResult, 0, len(plan.Pending)),
		Success:  true,
		DryRun:   params.DryRun,
	}

	if params.DryRun || len(plan.Pending) == 0 {
		result.Deployed = run.Snapshot()
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageRunCompleted, Metadata: result})
		return result, nil
	}

	if params.Confirm && uc.confirmer != nil {
		ok, err := uc.confirmer.Confirm(ctx, fmt.Sprintf("Run %d migration(s) on %s?", len(plan.Pending), params.Network))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRunCancelled
		}
	}

	for i, migration := range plan.Pending {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageMigrationStarting,
			Current: i + 1,
			Total:   len(plan.Pending),
			Message: migration.Name,
		})
		uc.log.Info("running migration", "migration", migration.Name, "operations", len(migration.Operations))

		migrationResult, err := uc.runMigration(ctx, migration, run)
		result.Executed = append(result.Executed, migrationResult)

		if err != nil {
			result.Failed = migrationResult
			result.Success = false
			result.Deployed = run.Snapshot()

			uc.progress.OnProgress(ctx, ProgressEvent{
				Stage:    StageMigrationFailed,
				Current:  i + 1,
				Total:    len(plan.Pending),
				Message:  migration.Name,
				Metadata: migrationResult,
			})
			uc.log.Error("migration failed", "migration", migration.Name, "error", err)
			return result, err
		}

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageMigrationCompleted,
			Current:  i + 1,
			Total:    len(plan.Pending),
			Message:  migration.Name,
			Metadata: migrationResult,
		})
	}

	result.Deployed = run.Snapshot()
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageRunCompleted, Metadata: result})
	return result, nil
}

// runMigration executes the operations of one migration in order and then
// writes its completion marker
func (uc *RunMigrations) runMigration(ctx context.Context, migration models.Migration, run *RunState) (*MigrationResult, error) {
	result := &MigrationResult{
		Name:   migration.Name,
		Status: models.MigrationRunning,
	}

	for i, op := range migration.Operations {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageOperationStarting,
			Current: i + 1,
			Total:   len(migration.Operations),
			Message: op.String(),
		})

		opResult, err := uc.execute(ctx, op, run)
		if err != nil {
			result.Status = models.MigrationFailed
			result.Error = &domain.MigrationFailedError{
				Migration:      migration.Name,
				OperationIndex: i,
				Operation:      op.String(),
				Err:            err,
			}
			return result, result.Error
		}
		opResult.Index = i
		result.Operations = append(result.Operations, opResult)

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:    StageOperationCompleted,
			Current:  i + 1,
			Total:    len(migration.Operations),
			Message:  op.String(),
			Metadata: opResult,
		})
	}

	if err := uc.records.MarkComplete(ctx, migration.Name); err != nil {
		result.Status = models.MigrationFailed
		result.Error = &domain.MigrationFailedError{
			Migration:      migration.Name,
			OperationIndex: -1,
			Operation:      "recording completion marker " + models.MigrationKey(migration.Name),
			Err:            err,
		}
		return result, result.Error
	}

	result.Status = models.MigrationComplete
	return result, nil
}

func (uc *RunMigrations) execute(ctx context.Context, op models.Operation, run *RunState) (*OperationResult, error) {
	switch o := op.(type) {
	case models.DeployContract:
		return uc.deployContract(ctx, o, run)
	case *models.DeployContract:
		return uc.deployContract(ctx, *o, run)
	case models.TransactContract:
		return uc.transactContract(ctx, o, run)
	case *models.TransactContract:
		return uc.transactContract(ctx, *o, run)
	case models.RegisterAddress:
		return uc.registerAddress(ctx, o, run)
	case *models.RegisterAddress:
		return uc.registerAddress(ctx, *o, run)
	default:
		return nil, fmt.Errorf("unsupported operation %T", op)
	}
}
