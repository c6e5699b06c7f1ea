package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-migrate/internal/cli/render"
	"github.com/trebuchet-org/treb-migrate/internal/usecase"
)

// NewFactoryCmd creates the factory command
func NewFactoryCmd() *cobra.Command {
	var links []string
	var full bool

	cmd := &cobra.Command{
		Use:   "factory <contract>",
		Short: "Link a contract's bytecode and show where each library address came from",
		Long: `Build the deployable bytecode for a contract without sending anything.

Library addresses given with --link take precedence; any other dependency is
read from the registrar on the selected network and checked against the code
deployed there.

Examples:
  treb-migrate factory Multiply13 -n sepolia
  treb-migrate factory Multiply13 --link Library13=0xd3cda913deb6f67967b99d67acdfa1712c293601
  treb-migrate factory Multiply13 -n sepolia --full`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			parsed, err := parseLinks(links)
			if err != nil {
				return err
			}

			result, err := app.ShowContractFactory.Run(cmd.Context(), usecase.ShowContractFactoryParams{
				Contract: args[0],
				Links:    parsed,
			})
			if err != nil {
				return err
			}

			return render.NewFactoryRenderer(cmd.OutOrStdout(), full).Render(result)
		},
	}

	cmd.Flags().StringArrayVar(&links, "link", nil, "Link a library address (Name=0x...), can be repeated")
	cmd.Flags().BoolVar(&full, "full", false, "Print the complete linked bytecode")
	cmd.Flags().String("artifacts", "", "Compiled artifacts directory or combined JSON file (overrides migrate.toml)")

	return cmd
}

// parseLinks turns Name=0x... pairs into an override map. Addresses are
// validated later by the linker.
func parseLinks(links []string) (map[string]string, error) {
	if len(links) == 0 {
		return nil, nil
	}

	parsed := make(map[string]string, len(links))
	for _, link := range links {
		name, address, ok := strings.Cut(link, "=")
		name, address = strings.TrimSpace(name), strings.TrimSpace(address)
		if !ok || name == "" || address == "" {
			return nil, fmt.Errorf("invalid --link %q, expected Name=0x...", link)
		}
		if _, dup := parsed[name]; dup {
			return nil, fmt.Errorf("duplicate --link for %s", name)
		}
		parsed[name] = address
	}
	return parsed, nil
}
