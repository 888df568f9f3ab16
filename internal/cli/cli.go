package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"simpatch/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type GlobalOptions struct {
	CfgFilePath string
	LogLevel    string
	EnvFile     string

	Logger *logrus.Logger
	Conf   *config.Config
}

func NewRootCMD() *cobra.Command {

	globalOptions := &GlobalOptions{}

	rootCMD := &cobra.Command{
		Use:   "simpatch",
		Short: "Simfile sound preview patcher",
		Long: `Finds simfiles without a sound preview, uploads the preview.mp3 of the matching
local simfile folder to object storage and stores its path on the record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeConfig(cmd, globalOptions)
		},
	}

	// register global flags
	globalOptions.registerFlags(rootCMD)

	// add subcommands
	rootCMD.AddCommand(NewPatchCommand(globalOptions))
	rootCMD.AddCommand(NewPendingCommand(globalOptions))
	rootCMD.AddCommand(NewMigrateCommand(globalOptions))
	rootCMD.AddCommand(NewSeedCommand(globalOptions))
	rootCMD.AddCommand(NewConfigCommand(globalOptions))

	return rootCMD
}

func (options *GlobalOptions) registerFlags(cmd *cobra.Command) {
	// flags that can be used for each command
	cmd.PersistentFlags().StringVar(&options.CfgFilePath, "config_path", defaultConfigPath, "Path to the base configuration file. (Env: SIMPATCH_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", "", "Logging level (trace, debug, info, warn, error). (Env: SIMPATCH_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&options.EnvFile, "env-file", defaultEnvFile, "Dotenv file loaded before reading the environment. Existing variables win.")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := NewRootCMD()

	// Run the command based on os.Args
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
