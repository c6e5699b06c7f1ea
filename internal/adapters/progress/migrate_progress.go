package progress

import (
	"context"

	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MigrateProgress renders migration run events as they happen
type MigrateProgress struct {
	renderer *render.MigrateRenderer
	spinner  *SpinnerProgressReporter

	planRendered bool
}

// NewMigrateProgress creates a new migration progress reporter
func NewMigrateProgress(renderer *render.MigrateRenderer) *MigrateProgress {
	return &MigrateProgress{
		renderer: renderer,
		spinner:  NewSpinnerProgressReporter(renderer.GetWriter()),
	}
}

// OnProgress handles progress events for migration runs
func (p *MigrateProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		if plan, ok := event.Metadata.(*usecase.MigrationPlan); ok && !p.planRendered {
			p.renderer.RenderPlan(plan)
			p.planRendered = true
		}

	case usecase.StageMigrationStarting:
		p.spinner.Stop()
		p.renderer.RenderMigrationHeader(event.Current, event.Total, event.Message)

	case usecase.StageOperationCompleted:
		p.spinner.Stop()
		if result, ok := event.Metadata.(*usecase.OperationResult); ok {
			p.renderer.RenderOperationResult(result)
		}

	case usecase.StageMigrationCompleted, usecase.StageMigrationFailed:
		p.spinner.Stop()
		if result, ok := event.Metadata.(*usecase.MigrationResult); ok {
			p.renderer.RenderMigrationResult(result)
		}

	case usecase.StageRunCompleted:
		// Final summary is rendered by the CLI command after this returns
		p.spinner.Stop()

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *MigrateProgress) Info(message string) {
	p.spinner.Info(message)
}

// Error forwards error messages to the spinner
func (p *MigrateProgress) Error(message string) {
	p.spinner.Error(message)
}

// Ensure MigrateProgress implements ProgressSink
var _ usecase.ProgressSink = (*MigrateProgress)(nil)
