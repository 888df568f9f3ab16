package cli

import (
	"context"
	"fmt"

	"simpatch/internal/initconfig"

	"github.com/spf13/cobra"
)

func NewSeedCommand(globalOptions *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.toml>",
		Short: "Load simfile records from a TOML file into the sqlite catalog",
		Long: `Inserts every [[simfile]] entry of the file into the local sqlite catalog.
Records whose id already exists are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), globalOptions, args[0])
		},
	}
}

func runSeed(ctx context.Context, globalOptions *GlobalOptions, path string) error {
	repo, err := openSQLiteCatalog(globalOptions.Conf)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.EnsureSchemaBootstrapped(); err != nil {
		return fmt.Errorf("failed to bootstrap catalog: %w", err)
	}
	if err := repo.ValidateSchema(); err != nil {
		return err
	}

	result, err := initconfig.Run(ctx, repo, path, globalOptions.Logger)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d simfile(s) could not be inserted", result.Failed)
	}
	return nil
}
