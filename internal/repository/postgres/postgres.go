// Package postgres reads and patches simfile records over a direct database
// connection to the hosted project.
package postgres

import (
	"context"
	"fmt"
	"regexp"

	"simpatch/internal/models"
	"simpatch/internal/shared"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var safeNameRegex = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

type PostgresRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
	table   string
}

// NewRepository connects to dsn and checks the connection.
func NewRepository(ctx context.Context, dsn, table string) (*PostgresRepository, error) {
	if !safeNameRegex.MatchString(table) {
		return nil, fmt.Errorf("postgres catalog: %w", shared.ErrInvalidName)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &PostgresRepository{
		pool:    pool,
		builder: newBuilder(),
		table:   table,
	}, nil
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func pendingQuery(b squirrel.StatementBuilderType, table string) (string, []interface{}, error) {
	return b.Select("id", "title", "preview_url", "sound_preview_url").
		From(fmt.Sprintf("\"%s\"", table)).
		Where(squirrel.Eq{"sound_preview_url": nil}).
		OrderBy("id").
		ToSql()
}

func updateQuery(b squirrel.StatementBuilderType, table string, id int64, path string) (string, []interface{}, error) {
	return b.Update(fmt.Sprintf("\"%s\"", table)).
		Set("sound_preview_url", path).
		Where(squirrel.Eq{"id": id}).
		ToSql()
}

// PendingSimfiles returns all records whose sound_preview_url is NULL.
func (r *PostgresRepository) PendingSimfiles(ctx context.Context) ([]models.Simfile, error) {
	query, args, err := pendingQuery(r.builder, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending simfiles: %w", err)
	}
	defer rows.Close()

	simfiles := make([]models.Simfile, 0)
	for rows.Next() {
		var sf models.Simfile
		var title, preview, sound pgtype.Text
		if err := rows.Scan(&sf.ID, &title, &preview, &sound); err != nil {
			return nil, fmt.Errorf("failed to scan simfile: %w", err)
		}
		sf.Title = title.String
		sf.PreviewURL = preview.String
		if sound.Valid {
			sf.SoundPreviewURL = &sound.String
		}
		simfiles = append(simfiles, sf)
	}
	return simfiles, rows.Err()
}

// SetSoundPreview sets sound_preview_url for one record.
func (r *PostgresRepository) SetSoundPreview(ctx context.Context, id int64, path string) error {
	query, args, err := updateQuery(r.builder, r.table, id, path)
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update simfile %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update simfile %d: %w", id, shared.ErrSimfileNotFound)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
