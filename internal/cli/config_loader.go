// filepath: internal/cli/config_loader.go
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"simpatch/internal/assets"
	"simpatch/internal/config"
	"simpatch/internal/logging"
	"simpatch/internal/patch"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "simpatch.toml"
	defaultEnvFile    = ".env"
	defaultBucket     = "simfile-sound-previews"
	defaultAliasFile  = "title_folder_map.json"
)

// initializeConfig loads and overrides configuration values.
func initializeConfig(cmd *cobra.Command, options *GlobalOptions) error {
	// 1. Dotenv values become plain environment variables
	if err := loadEnvFile(options.EnvFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	// 2. Check environment variable for config path
	if envPath := os.Getenv("SIMPATCH_CONFIG_PATH"); envPath != "" && !cmd.Flags().Changed("config_path") {
		options.CfgFilePath = envPath
	}

	cfg, err := config.LoadConfig(options.CfgFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = &config.Config{}
		} else {
			return fmt.Errorf("failed to load configuration from %s: %w", options.CfgFilePath, err)
		}
	}

	// 3. Apply Overrides (Env Vars and CLI Flags)
	applyOverrides(cfg, options)

	// 4. Validate
	if err := cfg.ParseAndValidate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	options.Conf = cfg

	// 5. Initialize Logging
	options.Logger = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	goose.SetLogger(options.Logger)

	return nil
}

// loadEnvFile reads a dotenv file. A missing file is only an error when the
// path was given explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

func applyOverrides(c *config.Config, options *GlobalOptions) {
	getEnv := func(key string) string { return os.Getenv(key) }

	// --- Environment Variables ---
	if v := getEnv("SUPABASE_URL"); v != "" {
		c.Supabase.URL = v
	}
	if v := getEnv("SUPABASE_KEY"); v != "" {
		c.Supabase.Key = v
	}
	if v := getEnv("DTX_DIRECTORY"); v != "" {
		c.Assets.Directory = v
	}
	if v := getEnv("SIMPATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getEnv("SIMPATCH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := getEnv("SIMPATCH_AUDIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.AuditEnabled = b
		}
	}
	if v := getEnv("SIMPATCH_CATALOG_DRIVER"); v != "" {
		c.Catalog.Driver = v
	}
	if v := getEnv("SIMPATCH_DATABASE_URL"); v != "" {
		c.Catalog.DatabaseURL = v
	}
	if v := getEnv("SIMPATCH_SQLITE_PATH"); v != "" {
		c.Catalog.SQLitePath = v
	}
	if v := getEnv("SIMPATCH_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := getEnv("SIMPATCH_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := getEnv("SIMPATCH_STORAGE_ROOT"); v != "" {
		c.Storage.Root = v
	}
	if v := getEnv("SIMPATCH_S3_ENDPOINT"); v != "" {
		c.Storage.S3Endpoint = v
	}
	if v := getEnv("SIMPATCH_S3_REGION"); v != "" {
		c.Storage.S3Region = v
	}
	if v := getEnv("SIMPATCH_S3_ACCESS_KEY_ID"); v != "" {
		c.Storage.S3AccessKeyID = v
	}
	if v := getEnv("SIMPATCH_S3_SECRET_ACCESS_KEY"); v != "" {
		c.Storage.S3SecretAccessKey = v
	}
	if v := getEnv("SIMPATCH_ALIAS_FILE"); v != "" {
		c.Assets.AliasFile = v
	}

	// --- CLI Flags ---
	if options.LogLevel != "" {
		c.Logging.Level = options.LogLevel
	}

	// --- Defaults ---
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = config.DriverPostgREST
	}
	if c.Catalog.Table == "" {
		c.Catalog.Table = "simfiles"
	}
	if c.Catalog.SQLitePath == "" {
		c.Catalog.SQLitePath = "simpatch.db"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = config.StorageSupabase
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = defaultBucket
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "storage_root"
	}
	if c.Assets.AliasFile == "" {
		c.Assets.AliasFile = defaultAliasFile
	}
	if c.Assets.PreviewFilename == "" {
		c.Assets.PreviewFilename = assets.DefaultPreviewFilename
	}
	if c.Assets.ContentType == "" {
		c.Assets.ContentType = patch.DefaultContentType
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "auto"
	}
}
