package cli

import (
	"fmt"

	"simpatch/internal/config"
	"simpatch/internal/repository/sqlite"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(globalOptions *GlobalOptions) *cobra.Command {

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Local catalog migration tools",
		Long:  `Manage the schema version of the sqlite catalog. Use subcommands 'up', 'down', or 'status'.`,
	}

	newSub := func(use, short string) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(use, globalOptions.Conf, globalOptions.Logger)
			},
		}
	}

	// Add subcommands
	migrateCmd.AddCommand(newSub("up", "Migrate the catalog to the most recent version"))
	migrateCmd.AddCommand(newSub("down", "Roll back the catalog by one version"))
	migrateCmd.AddCommand(newSub("status", "Dump the migration status for the current catalog"))

	return migrateCmd
}

func openSQLiteCatalog(c *config.Config) (*sqlite.SQLiteRepository, error) {
	if c.Catalog.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("catalog driver is %q, this command only works with %q (SIMPATCH_CATALOG_DRIVER)", c.Catalog.Driver, config.DriverSQLite)
	}
	if err := c.ValidateCatalog(); err != nil {
		return nil, err
	}
	return sqlite.NewRepository(c.Catalog.SQLitePath, c.Catalog.Table)
}

func runMigration(command string, c *config.Config, logger *logrus.Logger) error {
	repo, err := openSQLiteCatalog(c)
	if err != nil {
		return err
	}
	defer repo.Close()

	logger.WithField("path", c.Catalog.SQLitePath).Infof("Running migrate %s", command)
	switch command {
	case "up":
		err = repo.MigrateUp()
	case "down":
		err = repo.MigrateDown()
	case "status":
		err = repo.MigrationStatus()
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
