package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-migrate/internal/domain/models"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// StatusRenderer renders the migration status table
type StatusRenderer struct {
	out     io.Writer
	network string
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer, network string) *StatusRenderer {
	return &StatusRenderer{out: out, network: network}
}

// Render displays every migration with its completion state
func (r *StatusRenderer) Render(result *usecase.MigrationStatusResult) error {
	if len(result.Entries) == 0 {
		fmt.Fprintln(r.out, "No migrations found")
		return nil
	}

	color.New(color.Bold).Fprintf(r.out, "Migrations on %s\n\n", r.network)

	t := newTable()
	t.AppendHeader(table.Row{"#", "Migration", "Status", "Operations", "Depends on"})
	for _, entry := range result.Entries {
		t.AppendRow(table.Row{
			entry.Position,
			entry.Name,
			formatStatus(entry.Status),
			entry.Operations,
			strings.Join(entry.Dependencies, ", "),
		})
	}
	fmt.Fprintln(r.out, t.Render())

	fmt.Fprintf(r.out, "\n%d complete, %d pending\n", result.Complete, result.Pending)
	return nil
}

func formatStatus(status models.MigrationStatus) string {
	label := titleCase(string(status))
	switch status {
	case models.MigrationComplete:
		return color.New(color.FgGreen).Sprint(label)
	case models.MigrationFailed:
		return color.New(color.FgRed).Sprint(label)
	default:
		return color.New(color.FgYellow).Sprint(label)
	}
}

// Ensure StatusRenderer implements Renderer
var _ Renderer[*usecase.MigrationStatusResult] = (*StatusRenderer)(nil)
