package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// MigrateRenderer handles rendering of migration runs
type MigrateRenderer struct {
	out io.Writer
}

// NewMigrateRenderer creates a new migrate renderer
func NewMigrateRenderer(out io.Writer) *MigrateRenderer {
	return &MigrateRenderer{
		out: out,
	}
}

// GetWriter returns the io.Writer used by this renderer
func (r *MigrateRenderer) GetWriter() io.Writer {
	return r.out
}

// RenderPlan displays the migrations that will run, in order
func (r *MigrateRenderer) RenderPlan(plan *usecase.MigrationPlan) {
	if len(plan.Pending) == 0 {
		color.New(color.FgGreen).Fprintf(r.out, "✓ All %d migration(s) already complete\n", len(plan.Completed))
		return
	}

	fmt.Fprintf(r.out, "\n📋 Migration plan: %d pending, %d complete\n", len(plan.Pending), len(plan.Completed))
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for i, migration := range plan.Pending {
		fmt.Fprintf(r.out, "%d. ", i+1)
		color.New(color.FgCyan).Fprintf(r.out, "%s", migration.Name)

		if len(migration.Dependencies) > 0 {
			color.New(color.FgHiBlack).Fprintf(r.out, " (depends on: %s)", strings.Join(migration.Dependencies, ", "))
		}
		fmt.Fprintln(r.out)

		for _, op := range migration.Operations {
			color.New(color.FgHiBlack).Fprintf(r.out, "   • %s\n", op.String())
		}
	}

	fmt.Fprintln(r.out)
}

// RenderMigrationHeader shows the header of a migration about to run
func (r *MigrateRenderer) RenderMigrationHeader(current, total int, name string) {
	fmt.Fprintf(r.out, "\n")
	color.New(color.Bold).Fprintf(r.out, "[%d/%d] %s\n", current, total, name)
}

// RenderOperationResult shows a single confirmed operation
func (r *MigrateRenderer) RenderOperationResult(result *usecase.OperationResult) {
	color.New(color.FgGreen).Fprintf(r.out, "  ✓ ")
	fmt.Fprintf(r.out, "%s", result.Operation.String())

	if result.Address != (common.Address{}) {
		fmt.Fprintf(r.out, " → ")
		color.New(color.FgCyan).Fprintf(r.out, "%s", result.Address.Hex())
	}
	if result.TxHash != (common.Hash{}) {
		color.New(color.FgHiBlack).Fprintf(r.out, " (tx %s)", shortHash(result.TxHash))
	}
	fmt.Fprintln(r.out)
}

// RenderMigrationResult shows the outcome of a migration
func (r *MigrateRenderer) RenderMigrationResult(result *usecase.MigrationResult) {
	switch result.Status {
	case models.MigrationComplete:
		color.New(color.FgGreen).Fprintf(r.out, "✓ %s complete\n", result.Name)
	case models.MigrationFailed:
		color.New(color.FgRed).Fprintf(r.out, "❌ %s failed: %v\n", result.Name, result.Error)
	}
}

// RenderRunResult displays the final summary of a run
func (r *MigrateRenderer) RenderRunResult(result *usecase.MigrationRunResult) error {
	if result == nil || result.Plan == nil {
		return nil
	}

	if result.DryRun {
		color.New(color.FgYellow).Fprintf(r.out, "Dry run: %d migration(s) would run, nothing was submitted\n", len(result.Plan.Pending))
		return nil
	}
	if len(result.Plan.Pending) == 0 {
		return nil
	}

	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 70))

	if result.Success {
		color.New(color.FgGreen, color.Bold).Fprintf(r.out, "🎉 Successfully ran %d migration(s)\n", len(result.Executed))
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(r.out, "❌ Migration run failed\n")
	}

	fmt.Fprintf(r.out, "\n📊 Summary:\n")
	completed := len(result.Executed)
	if result.Failed != nil {
		completed--
		fmt.Fprintf(r.out, "  • Failed at migration: %s\n", result.Failed.Name)
	}
	fmt.Fprintf(r.out, "  • Migrations completed: %d/%d\n", completed, len(result.Plan.Pending))

	if len(result.Deployed) > 0 {
		fmt.Fprintf(r.out, "  • Deployed contracts:\n")
		for _, name := range sortedKeys(result.Deployed) {
			fmt.Fprintf(r.out, "      %s at %s\n", name, result.Deployed[name].Hex())
		}
	}
	if result.Failed != nil && result.Failed.Error != nil {
		fmt.Fprintf(r.out, "  • Error: %v\n", result.Failed.Error)
	}

	return nil
}

func shortHash(hash common.Hash) string {
	hex := hash.Hex()
	return hex[:10] + "…" + hex[len(hex)-6:]
}
