// filepath: internal/patch/interfaces.go
package patch

import (
	"context"
	"io"

	"simpatch/internal/assets"
	"simpatch/internal/models"
)

// Catalog reads pending simfiles and records their sound previews.
type Catalog interface {
	PendingSimfiles(ctx context.Context) ([]models.Simfile, error)
	SetSoundPreview(ctx context.Context, id int64, path string) error
}

// Store receives the uploaded preview files.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Resolver finds the local folder and preview file for a title.
type Resolver interface {
	ResolveFolder(title string) (assets.Folder, error)
	ResolveSound(folder string) (assets.Sound, error)
}

// Auditor defines the interface for recording catalog mutations.
type Auditor interface {
	// Log records an event.
	// action: what happened (e.g., "simfile.sound_preview.update")
	// actor: who did it
	// resource: what was affected (e.g., "simfile:101")
	// details: structured metadata about the event
	Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{})
}
