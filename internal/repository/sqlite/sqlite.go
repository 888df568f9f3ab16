// Package sqlite is a local simfile catalog, used for offline runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"simpatch/internal/db/migrations"
	"simpatch/internal/models"
	"simpatch/internal/shared"

	"github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

var safeNameRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// SchemaTable is the table created by the embedded migrations.
const SchemaTable = "simfiles"

type SQLiteRepository struct {
	DB      *sql.DB
	Builder squirrel.StatementBuilderType // SQL Query Builder
	table   string
}

// NewRepository opens (and creates if needed) the catalog file at path.
func NewRepository(path, table string) (*SQLiteRepository, error) {
	if !safeNameRegex.MatchString(table) {
		return nil, fmt.Errorf("sqlite catalog: %w", shared.ErrInvalidName)
	}
	if table != SchemaTable {
		return nil, fmt.Errorf("sqlite catalog: table %q is not managed by the migrations, use %q", table, SchemaTable)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	// a single writer avoids SQLITE_BUSY on the sequential update loop
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	return &SQLiteRepository{
		DB:      db,
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		table:   table,
	}, nil
}

func (s *SQLiteRepository) quotedTable() string {
	return fmt.Sprintf("\"%s\"", s.table)
}

// PendingSimfiles returns all records whose sound_preview_url is NULL.
func (s *SQLiteRepository) PendingSimfiles(ctx context.Context) ([]models.Simfile, error) {
	query, args, err := s.Builder.
		Select("id", "title", "preview_url", "sound_preview_url").
		From(s.quotedTable()).
		Where(squirrel.Eq{"sound_preview_url": nil}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending simfiles: %w", err)
	}
	defer rows.Close()

	simfiles := make([]models.Simfile, 0)
	for rows.Next() {
		var sf models.Simfile
		var sound sql.NullString
		if err := rows.Scan(&sf.ID, &sf.Title, &sf.PreviewURL, &sound); err != nil {
			return nil, fmt.Errorf("failed to scan simfile: %w", err)
		}
		if sound.Valid {
			sf.SoundPreviewURL = &sound.String
		}
		simfiles = append(simfiles, sf)
	}
	return simfiles, rows.Err()
}

// SetSoundPreview sets sound_preview_url for one record.
func (s *SQLiteRepository) SetSoundPreview(ctx context.Context, id int64, path string) error {
	query, args, err := s.Builder.
		Update(s.quotedTable()).
		Set("sound_preview_url", path).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update simfile %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update simfile %d: %w", id, shared.ErrSimfileNotFound)
	}
	return nil
}

// InsertSimfile adds a record unless its id already exists.
// It reports whether a row was inserted.
func (s *SQLiteRepository) InsertSimfile(ctx context.Context, sf models.Simfile) (bool, error) {
	query, args, err := s.Builder.
		Insert(s.quotedTable()).
		Columns("id", "title", "preview_url", "sound_preview_url").
		Values(sf.ID, sf.Title, sf.PreviewURL, sf.SoundPreviewURL).
		Suffix("ON CONFLICT(id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build insert query: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert simfile %d: %w", sf.ID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteRepository) Close() error {
	return s.DB.Close()
}

// --- Migrations ---

func prepareGoose() error {
	goose.SetBaseFS(migrations.FS)
	return goose.SetDialect("sqlite3")
}

// EnsureSchemaBootstrapped applies all migrations to a fresh catalog. Catalogs
// that already carry a schema version are left to `migrate up`.
func (s *SQLiteRepository) EnsureSchemaBootstrapped() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	current, err := goose.GetDBVersion(s.DB)
	if err != nil {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	if current > 0 {
		return nil
	}
	return goose.Up(s.DB, ".")
}

// ValidateSchema fails when the catalog is behind the embedded migrations.
func (s *SQLiteRepository) ValidateSchema() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	current, err := goose.GetDBVersion(s.DB)
	if err != nil {
		return fmt.Errorf("could not read schema version: %w", err)
	}
	all, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}
	latest, err := all.Last()
	if err != nil {
		return err
	}
	if current < latest.Version {
		return fmt.Errorf("catalog schema is outdated (version %d, want %d), run 'simpatch migrate up'", current, latest.Version)
	}
	return nil
}

func (s *SQLiteRepository) MigrateUp() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.Up(s.DB, ".")
}

func (s *SQLiteRepository) MigrateDown() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.Down(s.DB, ".")
}

func (s *SQLiteRepository) MigrationStatus() error {
	if err := prepareGoose(); err != nil {
		return err
	}
	return goose.Status(s.DB, ".")
}
