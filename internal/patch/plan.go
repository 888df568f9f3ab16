package patch

import (
	"context"
	"errors"
	"fmt"

	"simpatch/internal/assets"
	"simpatch/internal/models"
	"simpatch/internal/shared"
)

// Status is the predicted outcome for a pending record.
type Status string

const (
	StatusReady             Status = "ready"
	StatusFolderNotFound    Status = "folder not found"
	StatusSoundNotFound     Status = "sound file not found"
	StatusTooLarge          Status = "sound file too large"
	StatusMissingPreviewURL Status = "preview url missing"
)

// Outcome describes what a run would do with one record.
type Outcome struct {
	Simfile     models.Simfile
	Folder      assets.Folder
	Sound       assets.Sound
	Destination string
	Status      Status
}

// Plan resolves every pending record without touching the store or catalog
// rows. It honors Options.Limit.
func (r *Reconciler) Plan(ctx context.Context) ([]Outcome, error) {
	simfiles, err := r.catalog.PendingSimfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query pending simfiles: %w", err)
	}
	if r.opts.Limit > 0 && len(simfiles) > r.opts.Limit {
		simfiles = simfiles[:r.opts.Limit]
	}

	outcomes := make([]Outcome, 0, len(simfiles))
	for _, sf := range simfiles {
		o, err := r.plan(sf)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (r *Reconciler) plan(sf models.Simfile) (Outcome, error) {
	o := Outcome{Simfile: sf}

	folder, err := r.resolver.ResolveFolder(sf.LookupTitle())
	o.Folder = folder
	if errors.Is(err, shared.ErrFolderNotFound) {
		o.Status = StatusFolderNotFound
		return o, nil
	}
	if err != nil {
		return o, fmt.Errorf("simfile %d: %w", sf.ID, err)
	}

	sound, err := r.resolver.ResolveSound(folder.Path)
	o.Sound = sound
	switch {
	case errors.Is(err, shared.ErrSoundFileNotFound):
		o.Status = StatusSoundNotFound
		return o, nil
	case errors.Is(err, shared.ErrSoundFileTooLarge):
		o.Status = StatusTooLarge
		return o, nil
	case err != nil:
		return o, fmt.Errorf("simfile %d: %w", sf.ID, err)
	}

	o.Destination = assets.DestinationPath(sf.PreviewURL)
	if o.Destination == "" {
		o.Status = StatusMissingPreviewURL
		return o, nil
	}
	o.Status = StatusReady
	return o, nil
}
