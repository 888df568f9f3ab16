package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"simpatch/internal/audit"
	"simpatch/internal/config"
	"simpatch/internal/patch"
	"simpatch/internal/repository"
	"simpatch/internal/storage"

	"github.com/spf13/cobra"
)

type PatchOptions struct {
	AssetOptions

	DryRun       bool // If true, resolve and print without uploading or updating
	SkipExisting bool
	Upsert       bool
}

func NewPatchCommand(globalOptions *GlobalOptions) *cobra.Command {

	patchOptions := &PatchOptions{}

	patchCommand := &cobra.Command{
		Use:   "patch",
		Short: "Upload missing sound previews and update the catalog",
		Long: `Selects every simfile whose sound_preview_url is empty, finds the simfile folder by title
(exact name, case-insensitive name, then the alias file), uploads its preview.mp3 and stores
the uploaded path on the record. Simfiles without a folder or preview file are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("upsert") {
				globalOptions.Conf.Storage.Upsert = patchOptions.Upsert
			}
			return runPatch(cmd.Context(), globalOptions, patchOptions, cmd.OutOrStdout())
		},
	}

	patchOptions.registerFlags(patchCommand)

	return patchCommand
}

func (opt *PatchOptions) registerFlags(cmd *cobra.Command) {
	opt.AssetOptions.registerFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opt.DryRun, "dryrun", false, "If true, report only without uploading or editing.")
	cmd.Flags().BoolVar(&opt.SkipExisting, "skip-existing", false, "Do not upload previews that are already in the bucket, only update the record.")
	cmd.Flags().BoolVar(&opt.Upsert, "upsert", false, "Overwrite existing objects in the bucket. (Config: storage.upsert)")
}

func runPatch(ctx context.Context, globalOptions *GlobalOptions, opt *PatchOptions, out io.Writer) error {
	cfg := globalOptions.Conf
	logger := globalOptions.Logger
	opt.apply(cfg)

	// Everything is checked before the first record is touched.
	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCatalog(); err != nil {
		return err
	}
	needsSupabase := cfg.Catalog.Driver == config.DriverPostgREST
	if !opt.DryRun {
		if err := cfg.ValidateStorage(); err != nil {
			return err
		}
		needsSupabase = cfg.NeedsSupabase()
	}

	sb, err := newSupabaseClient(cfg, logger, needsSupabase)
	if err != nil {
		return err
	}

	catalog, err := repository.Open(ctx, cfg, sb)
	if err != nil {
		return err
	}
	defer catalog.Close()

	var store patch.Store
	if !opt.DryRun {
		s, err := storage.Open(ctx, cfg, sb)
		if err != nil {
			return err
		}
		store = s
	}

	reconciler := patch.NewReconciler(
		catalog,
		store,
		resolver,
		audit.NewLoggerAuditor(cfg.Logging.AuditEnabled, logger),
		logger,
		out,
		patch.Options{
			DryRun:       opt.DryRun,
			SkipExisting: opt.SkipExisting,
			Limit:        opt.Limit,
			ContentType:  cfg.Assets.ContentType,
		},
	)

	report, err := reconciler.Run(ctx)
	fmt.Fprintln(out, renderReport(report, opt.DryRun))
	return err
}

func renderReport(r patch.Report, dryRun bool) string {
	rows := [][]string{
		{"Run", r.RunID},
		{"Selected", strconv.Itoa(r.Selected)},
		{"Processed", strconv.Itoa(r.Visited)},
	}
	if dryRun {
		rows = append(rows, []string{"Would update", strconv.Itoa(r.Planned)})
	} else {
		rows = append(rows,
			[]string{"Updated", strconv.Itoa(r.Updated)},
			[]string{"Reused objects", strconv.Itoa(r.Reused)},
		)
	}
	rows = append(rows,
		[]string{"Folder not found", strconv.Itoa(r.FolderNotFound)},
		[]string{"Sound file not found", strconv.Itoa(r.SoundNotFound)},
		[]string{"Sound file too large", strconv.Itoa(r.TooLarge)},
		[]string{"Preview url missing", strconv.Itoa(r.MissingPreviewURL)},
	)
	return renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight})
}
