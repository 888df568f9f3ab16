// Package postgrest reads and patches simfile records through the hosted
// project's REST endpoint.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"simpatch/internal/models"
	"simpatch/internal/shared"
	"simpatch/internal/supabase"
)

// PageSize matches the default max-rows limit of hosted projects.
const PageSize = 1000

var columns = []string{"id", "title", "preview_url", "sound_preview_url"}

// Catalog implements the simfile catalog on top of PostgREST.
type Catalog struct {
	client   *supabase.Client
	table    string
	pageSize int
}

// New creates a Catalog for table.
func New(client *supabase.Client, table string) *Catalog {
	return &Catalog{client: client, table: table, pageSize: PageSize}
}

// PendingSimfiles fetches all pending records, page by page, before any of
// them is modified.
func (c *Catalog) PendingSimfiles(ctx context.Context) ([]models.Simfile, error) {
	simfiles := make([]models.Simfile, 0)
	for offset := 0; ; offset += c.pageSize {
		query := url.Values{}
		query.Set("select", strings.Join(columns, ","))
		query.Set("sound_preview_url", "is.null")
		query.Set("order", "id.asc")
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		req, err := c.client.NewRequest(ctx, http.MethodGet, query, nil, "rest", "v1", c.table)
		if err != nil {
			return nil, err
		}
		var page []models.Simfile
		if err := c.client.DoJSON(req, &page); err != nil {
			return nil, fmt.Errorf("failed to query pending simfiles: %w", err)
		}
		simfiles = append(simfiles, page...)
		if len(page) < c.pageSize {
			return simfiles, nil
		}
	}
}

// SetSoundPreview patches one record. Row level security silently filters
// updates, so the changed rows are requested back and counted.
func (c *Catalog) SetSoundPreview(ctx context.Context, id int64, path string) error {
	query := url.Values{}
	query.Set("id", "eq."+strconv.FormatInt(id, 10))
	query.Set("select", "id")

	body, err := json.Marshal(map[string]string{"sound_preview_url": path})
	if err != nil {
		return err
	}
	req, err := c.client.NewRequest(ctx, http.MethodPatch, query, bytes.NewReader(body), "rest", "v1", c.table)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var changed []struct {
		ID int64 `json:"id"`
	}
	if err := c.client.DoJSON(req, &changed); err != nil {
		return fmt.Errorf("failed to update simfile %d: %w", id, err)
	}
	if len(changed) == 0 {
		return fmt.Errorf("update simfile %d: %w", id, shared.ErrSimfileNotFound)
	}
	return nil
}

// Close is a no-op; the HTTP client holds no per-catalog resources.
func (c *Catalog) Close() error {
	return nil
}
