package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"simpatch/internal/config"
	"simpatch/internal/patch"
	"simpatch/internal/repository"

	"github.com/spf13/cobra"
)

func NewPendingCommand(globalOptions *GlobalOptions) *cobra.Command {

	pendingOptions := &AssetOptions{}

	pendingCommand := &cobra.Command{
		Use:   "pending",
		Short: "List simfiles without a sound preview and how each would resolve",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(cmd.Context(), globalOptions, pendingOptions, cmd.OutOrStdout())
		},
	}

	pendingOptions.registerFlags(pendingCommand.Flags())

	return pendingCommand
}

func runPending(ctx context.Context, globalOptions *GlobalOptions, opt *AssetOptions, out io.Writer) error {
	cfg := globalOptions.Conf
	opt.apply(cfg)

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCatalog(); err != nil {
		return err
	}
	sb, err := newSupabaseClient(cfg, globalOptions.Logger, cfg.Catalog.Driver == config.DriverPostgREST)
	if err != nil {
		return err
	}
	catalog, err := repository.Open(ctx, cfg, sb)
	if err != nil {
		return err
	}
	defer catalog.Close()

	reconciler := patch.NewReconciler(catalog, nil, resolver, nil, globalOptions.Logger, out, patch.Options{Limit: opt.Limit})
	outcomes, err := reconciler.Plan(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderOutcomes(outcomes))
	return nil
}

func renderOutcomes(outcomes []patch.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	ready := 0
	for _, o := range outcomes {
		if o.Status == patch.StatusReady {
			ready++
		}
		match := ""
		if o.Status != patch.StatusFolderNotFound {
			match = string(o.Folder.Match)
		}
		rows = append(rows, []string{
			strconv.FormatInt(o.Simfile.ID, 10),
			o.Simfile.Title,
			string(o.Status),
			match,
			o.Folder.Path,
			o.Destination,
		})
	}
	table := renderTable(
		[]string{"ID", "Title", "Status", "Match", "Folder", "Destination"},
		rows,
		[]columnAlignment{alignRight},
	)
	return fmt.Sprintf("%s\n%d of %d pending simfile(s) ready to patch", table, ready, len(outcomes))
}
