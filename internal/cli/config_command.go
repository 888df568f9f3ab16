package cli

import (
	"fmt"

	"simpatch/internal/config"

	"github.com/spf13/cobra"
)

func NewConfigCommand(globalOptions *GlobalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "write <file.toml>",
		Short: "Write the effective configuration (file, environment and defaults) without secrets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveConfig(args[0], globalOptions.Conf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", args[0])
			return nil
		},
	})

	return configCmd
}
