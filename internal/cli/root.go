package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-migrate/internal/adapters/progress"
	"github.com/trebuchet-org/treb-migrate/internal/app"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/config"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// Execute runs the CLI. Resources acquired while initializing the app are
// released after the command returns, including when it fails.
func Execute() error {
	var release func()
	return execute(newRootCmd(&release), &release)
}

func execute(rootCmd *cobra.Command, release *func()) error {
	defer func() {
		if *release != nil {
			(*release)()
		}
	}()
	return rootCmd.Execute()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var release func()
	return newRootCmd(&release)
}

// newRootCmd creates the root command; release is set once the app is initialized
func newRootCmd(release *func()) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-migrate",
		Short: "Linked contract deployments and resumable migrations for EVM chains",
		Long: `treb-migrate deploys contracts in dependency order, links library
addresses into their bytecode and records completed migrations on chain in a
registrar contract, so interrupted runs resume where they stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot)
			bindGlobalFlags(v, cmd)

			appInstance, cleanup, err := app.InitApp(cmd.Context(), v, progressSink(cmd))
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			cancel := func() {}
			if appInstance.Config.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
			}
			*release = func() {
				cancel()
				cleanup()
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., anvil, sepolia)")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Skip the confirmation prompt before broadcasting")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall command timeout (e.g. 30m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspection",
		Title: "Inspection Commands",
	})

	migrateCmd := NewMigrateCmd()
	migrateCmd.GroupID = "main"
	rootCmd.AddCommand(migrateCmd)

	statusCmd := NewStatusCmd()
	statusCmd.GroupID = "inspection"
	rootCmd.AddCommand(statusCmd)

	factoryCmd := NewFactoryCmd()
	factoryCmd.GroupID = "inspection"
	rootCmd.AddCommand(factoryCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// progressSink renders live progress only for commands that broadcast
func progressSink(cmd *cobra.Command) usecase.ProgressSink {
	if cmd.Name() != "migrate" {
		return progress.NewNopProgressSink()
	}
	return progress.NewMigrateProgress(render.NewMigrateRenderer(cmd.OutOrStdout()))
}

// viperKeys maps flag names to their viper keys
var viperKeys = map[string]string{
	"debug":           "debug",
	"non-interactive": "non_interactive",
	"network":         "network",
	"yes":             "yes",
	"timeout":         "timeout",
	"dry-run":         "dry_run",
	"artifacts":       "artifacts",
	"migrations":      "migrations",
}

// bindGlobalFlags binds command flags that have been set to viper
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if key, ok := viperKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
