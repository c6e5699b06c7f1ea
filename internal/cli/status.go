package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are complete on a network",
		Long: `List every discovered migration in execution order with its completion
state, read from the registrar on the selected network.

Examples:
  treb-migrate status --network sepolia`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowMigrationStatus.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewStatusRenderer(cmd.OutOrStdout(), app.Config.Network.Name).Render(result)
		},
	}

	cmd.Flags().String("migrations", "", "Migrations directory or file (overrides migrate.toml)")

	return cmd
}
