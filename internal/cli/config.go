package cli

import (
	"github.com/spf13/cobra"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Values are merged from built-in defaults, intelgraph.toml (or --config),
INTELGRAPH_* environment variables and flags, in increasing priority. The
output is a valid config file. The redis password is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.settings().WriteTOML(cmd.OutOrStdout())
		},
	})
	return cmd
}
