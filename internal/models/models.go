// filepath: internal/models/models.go
package models

import "strings"

// Simfile is one row of the simfile catalog.
// A nil SoundPreviewURL marks the record as pending.
type Simfile struct {
	ID              int64   `json:"id" toml:"id"`
	Title           string  `json:"title" toml:"title"`
	PreviewURL      string  `json:"preview_url" toml:"preview_url"`
	SoundPreviewURL *string `json:"sound_preview_url" toml:"sound_preview_url,omitempty"`
}

// LookupTitle is the title used for folder matching.
func (s Simfile) LookupTitle() string {
	return strings.TrimSpace(s.Title)
}
