// Package patch fills in missing sound previews of catalog simfiles.
package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"simpatch/internal/assets"
	"simpatch/internal/models"
	"simpatch/internal/shared"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// AuditActionUpdate is logged for every record whose sound preview was set.
const AuditActionUpdate = "simfile.sound_preview.update"

const (
	auditActor         = "simpatch"
	DefaultContentType = "audio/mpeg"
)

// Options changes how Run treats each record. The zero value uploads and
// updates every pending record.
type Options struct {
	DryRun       bool   // resolve and print, never upload or update
	SkipExisting bool   // reuse objects already in the store instead of uploading
	Limit        int    // process at most Limit records, 0 means all
	ContentType  string // defaults to DefaultContentType
}

// Reconciler walks the pending simfiles and publishes their local previews.
// Records are processed one at a time; any remote failure stops the run.
type Reconciler struct {
	catalog  Catalog
	store    Store
	resolver Resolver
	auditor  Auditor
	out      io.Writer
	log      *logrus.Entry
	opts     Options
	runID    string
}

// NewReconciler wires a Reconciler. Progress lines are written to out.
// auditor may be nil.
func NewReconciler(catalog Catalog, store Store, resolver Resolver, auditor Auditor, logger *logrus.Logger, out io.Writer, opts Options) *Reconciler {
	if opts.ContentType == "" {
		opts.ContentType = DefaultContentType
	}
	runID := ulid.Make().String()
	return &Reconciler{
		catalog:  catalog,
		store:    store,
		resolver: resolver,
		auditor:  auditor,
		out:      out,
		log:      logger.WithField("run_id", runID),
		opts:     opts,
		runID:    runID,
	}
}

// RunID identifies this reconciler's run in logs and audit events.
func (r *Reconciler) RunID() string {
	return r.runID
}

// Run processes every pending record. The returned Report is valid even
// when err is not nil and covers the records handled before the failure.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: r.runID}

	simfiles, err := r.catalog.PendingSimfiles(ctx)
	if err != nil {
		return report, fmt.Errorf("could not query pending simfiles: %w", err)
	}
	report.Selected = len(simfiles)
	if r.opts.Limit > 0 && len(simfiles) > r.opts.Limit {
		simfiles = simfiles[:r.opts.Limit]
	}
	r.log.WithFields(logrus.Fields{
		"selected": report.Selected,
		"limit":    r.opts.Limit,
		"dry_run":  r.opts.DryRun,
	}).Info("Starting sound preview patch")

	for _, sf := range simfiles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Visited++
		if err := r.patchOne(ctx, sf, &report); err != nil {
			r.log.WithError(err).WithField("simfile_id", sf.ID).Error("Patch aborted")
			return report, err
		}
	}

	r.log.WithFields(logrus.Fields{
		"updated": report.Updated,
		"reused":  report.Reused,
		"skipped": report.Skipped(),
	}).Info("Sound preview patch finished")
	return report, nil
}

func (r *Reconciler) patchOne(ctx context.Context, sf models.Simfile, report *Report) error {
	log := r.log.WithField("simfile_id", sf.ID)
	title := sf.LookupTitle()
	r.printf("Title: %s\n", title)

	folder, err := r.resolver.ResolveFolder(title)
	if err != nil {
		if errors.Is(err, shared.ErrFolderNotFound) {
			r.printf("Folder not found: %s\n", folder.Path)
			log.WithError(err).Debug("Skipping simfile")
			report.FolderNotFound++
			return nil
		}
		return fmt.Errorf("simfile %d: %w", sf.ID, err)
	}
	r.printf("Found Folder: %s\n", folder.Path)

	sound, err := r.resolver.ResolveSound(folder.Path)
	switch {
	case errors.Is(err, shared.ErrSoundFileNotFound):
		r.printf("Sound file not found.\n")
		log.WithError(err).Debug("Skipping simfile")
		report.SoundNotFound++
		return nil
	case errors.Is(err, shared.ErrSoundFileTooLarge):
		r.printf("Sound file too large: %s\n", sound.Path)
		log.WithError(err).Warn("Skipping simfile")
		report.TooLarge++
		return nil
	case err != nil:
		return fmt.Errorf("simfile %d: %w", sf.ID, err)
	}
	r.printf("Sound file found: %s\n", sound.Path)

	dest := assets.DestinationPath(sf.PreviewURL)
	if dest == "" {
		r.printf("Preview url missing.\n")
		log.Warn("Skipping simfile without preview_url")
		report.MissingPreviewURL++
		return nil
	}

	if r.opts.DryRun {
		r.printf("Would update sound_preview_url: %s\n", dest)
		report.Planned++
		return nil
	}

	reused := false
	if r.opts.SkipExisting {
		exists, err := r.store.Exists(ctx, dest)
		if err != nil {
			return fmt.Errorf("simfile %d: %w", sf.ID, err)
		}
		reused = exists
	}
	if !reused {
		if err := r.upload(ctx, sound, dest); err != nil {
			return fmt.Errorf("simfile %d: %w", sf.ID, err)
		}
	}

	// The object is stored from here on. A failing update leaves it
	// orphaned until a later run with SkipExisting picks it up.
	if err := r.catalog.SetSoundPreview(ctx, sf.ID, dest); err != nil {
		return fmt.Errorf("simfile %d: could not update sound_preview_url: %w", sf.ID, err)
	}
	r.printf("Updated sound_preview_url: %s\n", dest)

	report.Updated++
	if reused {
		report.Reused++
	}
	log.WithFields(logrus.Fields{
		"path":   dest,
		"match":  folder.Match,
		"reused": reused,
	}).Info("Sound preview updated")

	if r.auditor != nil {
		r.auditor.Log(ctx, AuditActionUpdate, auditActor, fmt.Sprintf("simfile:%d", sf.ID), map[string]interface{}{
			"run_id":            r.runID,
			"sound_preview_url": dest,
			"source":            sound.Path,
			"match":             string(folder.Match),
			"reused":            reused,
		})
	}
	return nil
}

func (r *Reconciler) upload(ctx context.Context, sound assets.Sound, dest string) error {
	f, err := os.Open(sound.Path)
	if err != nil {
		return fmt.Errorf("could not open sound file: %w", err)
	}
	defer f.Close()

	if err := r.store.Upload(ctx, dest, f, sound.Size, r.opts.ContentType); err != nil {
		return fmt.Errorf("could not upload %s: %w", dest, err)
	}
	return nil
}

func (r *Reconciler) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}
