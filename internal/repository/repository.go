package repository

import (
	"context"
	"fmt"

	"simpatch/internal/config"
	"simpatch/internal/models"
	"simpatch/internal/repository/postgres"
	"simpatch/internal/repository/postgrest"
	"simpatch/internal/repository/sqlite"
	"simpatch/internal/supabase"
)

// Catalog is the store of simfile records.
type Catalog interface {
	// PendingSimfiles returns every record without a sound preview, ordered by id.
	PendingSimfiles(ctx context.Context) ([]models.Simfile, error)
	// SetSoundPreview stores path as the sound preview of record id.
	// It returns shared.ErrSimfileNotFound when no row was changed.
	SetSoundPreview(ctx context.Context, id int64, path string) error
	Close() error
}

var (
	_ Catalog = (*postgrest.Catalog)(nil)
	_ Catalog = (*postgres.PostgresRepository)(nil)
	_ Catalog = (*sqlite.SQLiteRepository)(nil)
)

// Open connects to the catalog selected by cfg.Catalog.Driver.
// sb is only used by the postgrest driver and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, sb *supabase.Client) (Catalog, error) {
	switch cfg.Catalog.Driver {
	case config.DriverPostgREST:
		if sb == nil {
			return nil, fmt.Errorf("postgrest catalog needs a supabase client")
		}
		return postgrest.New(sb, cfg.Catalog.Table), nil
	case config.DriverPostgres:
		return postgres.NewRepository(ctx, cfg.Catalog.DatabaseURL, cfg.Catalog.Table)
	case config.DriverSQLite:
		repo, err := sqlite.NewRepository(cfg.Catalog.SQLitePath, cfg.Catalog.Table)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureSchemaBootstrapped(); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to bootstrap catalog: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}
