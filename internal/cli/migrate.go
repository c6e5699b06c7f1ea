package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run pending migrations against a network",
		Long: `Run every migration that has no completion marker on the selected network.

Migrations run one at a time in dependency order. Each deploy links library
addresses from, in order of precedence, explicit links in the migration file,
contracts deployed earlier in the same run, and the on-chain registrar.
Registrar addresses are checked against the code deployed at them before use.

A migration is marked complete in the registrar only after all of its
operations are confirmed. If a run fails, fix the cause and run again: it
resumes with the failed migration.

Examples:
  treb-migrate migrate --network anvil
  treb-migrate migrate --network sepolia --dry-run
  treb-migrate migrate -n sepolia --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config

			params := usecase.RunMigrationsParams{
				Network: cfg.Network.Name,
				DryRun:  cfg.DryRun,
				Confirm: !cfg.Network.Local && !cfg.Yes && !cfg.NonInteractive,
			}

			result, runErr := app.RunMigrations.Run(cmd.Context(), params)
			if errors.Is(runErr, usecase.ErrRunCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("Cancelled, nothing was submitted"))
				return nil
			}

			renderer := render.NewMigrateRenderer(cmd.OutOrStdout())
			if result != nil {
				if err := renderer.RenderRunResult(result); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("migration run failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show the migration plan without submitting transactions")
	cmd.Flags().String("artifacts", "", "Compiled artifacts directory or combined JSON file (overrides migrate.toml)")
	cmd.Flags().String("migrations", "", "Migrations directory or file (overrides migrate.toml)")

	return cmd
}
