// filepath: internal/initconfig/init.go
// Package initconfig loads simfile rows from a TOML seed file into a local catalog.
package initconfig

import (
	"context"
	"fmt"
	"os"

	"simpatch/internal/models"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Seeder inserts a simfile unless its id is already present.
type Seeder interface {
	InsertSimfile(ctx context.Context, sf models.Simfile) (bool, error)
}

// Load reads and decodes a seed file.
func Load(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file '%s': %w", path, err)
	}
	var seed SeedFile
	if _, err := toml.Decode(string(data), &seed); err != nil {
		return nil, fmt.Errorf("failed to parse TOML seed file '%s': %w", path, err)
	}
	return &seed, nil
}

// Run seeds every simfile of the file at path. Rows that fail are logged and
// skipped, like the rows that already exist.
func Run(ctx context.Context, seeder Seeder, path string, log *logrus.Logger) (Result, error) {
	var result Result

	log.Infof("Seed file found at: %s. Processing...", path)
	seed, err := Load(path)
	if err != nil {
		return result, err
	}
	log.Infof("Found %d simfile(s) in seed file.", len(seed.Simfiles))

	for _, s := range seed.Simfiles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.ID <= 0 || s.Title == "" {
			log.Warnf("Skipping simfile with id %d: id and title are required.", s.ID)
			result.Invalid++
			continue
		}

		inserted, err := seeder.InsertSimfile(ctx, models.Simfile{
			ID:              s.ID,
			Title:           s.Title,
			PreviewURL:      s.PreviewURL,
			SoundPreviewURL: s.SoundPreviewURL,
		})
		switch {
		case err != nil:
			log.Errorf("Failed to insert simfile %d '%s': %v", s.ID, s.Title, err)
			result.Failed++
		case !inserted:
			log.Infof("Skipping simfile %d: already exists.", s.ID)
			result.Existing++
		default:
			log.Debugf("Inserted simfile %d '%s'", s.ID, s.Title)
			result.Inserted++
		}
	}

	log.Infof("Seeding done: %d inserted, %d existing, %d invalid, %d failed.",
		result.Inserted, result.Existing, result.Invalid, result.Failed)
	return result, nil
}
