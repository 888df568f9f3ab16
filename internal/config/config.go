// filepath: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"simpatch/internal/shared"

	"github.com/BurntSushi/toml"
)

// Catalog drivers.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

// SQLiteTable is the only table the embedded sqlite migrations create.
const SQLiteTable = "simfiles"

// Storage drivers.
const (
	StorageSupabase = "supabase"
	StorageS3       = "s3"
	StorageLocal    = "local"
)

// SafeNameRegex restricts table names that end up inside SQL and REST paths.
var SafeNameRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// Config holds the application's configuration.
type Config struct {
	Supabase SupabaseConfig `toml:"supabase"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Storage  StorageConfig  `toml:"storage"`
	Assets   AssetsConfig   `toml:"assets"`
	Logging  LoggingConfig  `toml:"logging"`

	MaxPreviewSizeBytes int64         `toml:"-"` // Runtime computed value
	ListingTTL          time.Duration `toml:"-"` // Runtime computed value
	SupabaseTimeout     time.Duration `toml:"-"` // Runtime computed value
}

// SupabaseConfig holds the hosted project endpoint. The key is never read from the file.
type SupabaseConfig struct {
	URL     string `toml:"url"`
	Key     string `toml:"-"` // Set by env (SUPABASE_KEY)
	Timeout string `toml:"timeout"`
}

// CatalogConfig selects where simfile records live.
type CatalogConfig struct {
	Driver      string `toml:"driver"`
	Table       string `toml:"table"`
	SQLitePath  string `toml:"sqlite_path"`
	DatabaseURL string `toml:"-"` // Contains credentials, env only
}

// StorageConfig selects where sound previews are uploaded.
type StorageConfig struct {
	Driver string `toml:"driver"`
	Bucket string `toml:"bucket"`
	Upsert bool   `toml:"upsert"`
	Root   string `toml:"root"` // local driver only

	S3Endpoint        string `toml:"s3_endpoint"`
	S3Region          string `toml:"s3_region"`
	S3AccessKeyID     string `toml:"s3_access_key_id"`
	S3SecretAccessKey string `toml:"-"`
}

// AssetsConfig describes the local simfile tree.
type AssetsConfig struct {
	Directory       string `toml:"directory"`
	AliasFile       string `toml:"alias_file"`
	PreviewFilename string `toml:"preview_filename"`
	ContentType     string `toml:"content_type"`
	MaxPreviewSize  string `toml:"max_preview_size"` // e.g. "50MB", "0" disables
	ListingTTL      string `toml:"listing_ttl"`      // e.g. "10m", "0" keeps the listing for the whole run
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level        string `toml:"level"`
	Format       string `toml:"format"` // auto, json, text
	AuditEnabled bool   `toml:"audit_enabled"`
}

// LoadConfig loads the configuration from a TOML file.
func LoadConfig(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration back to a TOML file.
// Secrets are tagged out and never written.
func SaveConfig(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trying to save the config: %w: %v", shared.ErrorCreateFile, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("trying to save the config: %w: %v", shared.ErrorEncodeFile, err)
	}
	return nil
}

// ParseAndValidate processes configuration strings into runtime values.
// Requirements that depend on the command being run are checked by the
// Validate* methods.
func (c *Config) ParseAndValidate() error {
	if c.Assets.MaxPreviewSize == "" {
		c.Assets.MaxPreviewSize = "0"
	}
	sizeBytes, err := parseSize(c.Assets.MaxPreviewSize)
	if err != nil {
		return fmt.Errorf("invalid max_preview_size: %w", err)
	}
	c.MaxPreviewSizeBytes = sizeBytes

	if c.Assets.ListingTTL == "" {
		c.Assets.ListingTTL = "0"
	}
	ttl, err := time.ParseDuration(c.Assets.ListingTTL)
	if err != nil || ttl < 0 {
		return fmt.Errorf("invalid listing_ttl %q", c.Assets.ListingTTL)
	}
	c.ListingTTL = ttl

	if c.Supabase.Timeout == "" {
		c.Supabase.Timeout = "30s"
	}
	timeout, err := time.ParseDuration(c.Supabase.Timeout)
	if err != nil {
		return fmt.Errorf("invalid supabase timeout: %w", err)
	}
	c.SupabaseTimeout = timeout

	switch c.Catalog.Driver {
	case DriverPostgREST, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown catalog driver %q", c.Catalog.Driver)
	}
	switch c.Storage.Driver {
	case StorageSupabase, StorageS3, StorageLocal:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if !SafeNameRegex.MatchString(c.Catalog.Table) {
		return fmt.Errorf("catalog table %q: %w", c.Catalog.Table, shared.ErrInvalidName)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "auto", "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// NeedsSupabase reports whether any configured driver talks to the hosted project API.
func (c *Config) NeedsSupabase() bool {
	return c.Catalog.Driver == DriverPostgREST || c.Storage.Driver == StorageSupabase
}

// ValidateCatalog checks the settings required to reach the catalog.
func (c *Config) ValidateCatalog() error {
	switch c.Catalog.Driver {
	case DriverPostgREST:
		return c.validateSupabase()
	case DriverPostgres:
		if c.Catalog.DatabaseURL == "" {
			return missing("SIMPATCH_DATABASE_URL")
		}
	case DriverSQLite:
		if c.Catalog.SQLitePath == "" {
			return missing("catalog.sqlite_path")
		}
		if c.Catalog.Table != SQLiteTable {
			return fmt.Errorf("catalog table %q: the sqlite catalog only provides table %q", c.Catalog.Table, SQLiteTable)
		}
	}
	return nil
}

// ValidateStorage checks the settings required to upload previews.
func (c *Config) ValidateStorage() error {
	if c.Storage.Bucket == "" {
		return missing("storage.bucket")
	}
	switch c.Storage.Driver {
	case StorageSupabase:
		return c.validateSupabase()
	case StorageS3:
		if c.Storage.S3Endpoint == "" {
			return missing("SIMPATCH_S3_ENDPOINT")
		}
		if c.Storage.S3AccessKeyID == "" || c.Storage.S3SecretAccessKey == "" {
			return missing("SIMPATCH_S3_ACCESS_KEY_ID/SIMPATCH_S3_SECRET_ACCESS_KEY")
		}
	case StorageLocal:
		if c.Storage.Root == "" {
			return missing("storage.root")
		}
	}
	return nil
}

// ValidateAssets checks that the simfile directory and alias file are usable.
func (c *Config) ValidateAssets() error {
	if c.Assets.Directory == "" {
		return missing("DTX_DIRECTORY")
	}
	info, err := os.Stat(c.Assets.Directory)
	if err != nil {
		return fmt.Errorf("simfile directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("simfile directory %s is not a directory", c.Assets.Directory)
	}
	if c.Assets.AliasFile == "" {
		return missing("SIMPATCH_ALIAS_FILE")
	}
	if c.Assets.PreviewFilename == "" || strings.ContainsAny(c.Assets.PreviewFilename, `/\`) {
		return fmt.Errorf("invalid preview filename %q", c.Assets.PreviewFilename)
	}
	return nil
}

func (c *Config) validateSupabase() error {
	if c.Supabase.URL == "" {
		return missing("SUPABASE_URL")
	}
	if c.Supabase.Key == "" {
		return missing("SUPABASE_KEY")
	}
	return nil
}

func missing(name string) error {
	return fmt.Errorf("%w: %s", shared.ErrMissingConfig, name)
}
