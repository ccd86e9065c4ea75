package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-commerce/jobs"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Start   string
	End     string
	Enqueue bool
	Verbose bool
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Derive cash-flow entries for completed orders that have none",
		Long: `Backfill revenue, cost of goods and shipping entries for completed orders.

Orders that already have derived entries are skipped, so the command can be
run repeatedly.

Examples:
  odysseyctl sync
  odysseyctl sync --start 2024-03-01 --end 2024-03-31
  odysseyctl sync --enqueue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Start, "start", "", "earliest order date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&opts.End, "end", "", "latest order date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().BoolVar(&opts.Enqueue, "enqueue", false, "submit to the worker queue instead of running in-process")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "list every order")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	from, err := parseDate(opts.Start, false)
	if err != nil {
		return err
	}
	to, err := parseDate(opts.End, true)
	if err != nil {
		return err
	}
	if from != nil && to != nil && to.Before(*from) {
		return fmt.Errorf("end date precedes start date")
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.Enqueue {
		if from != nil || to != nil {
			return fmt.Errorf("--enqueue runs the full sync; drop --start/--end or run in-process")
		}
		queue, err := opts.factory.Queue()
		if err != nil {
			return err
		}
		defer queue.Close()
		info, err := queue.Trigger(ctx, jobs.TaskCashflowSync)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return writeJSON(out, map[string]string{"id": info.ID, "queue": info.Queue, "type": info.Type})
		}
		fmt.Fprintf(out, "enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
		return nil
	}

	backend, err := opts.factory.Backend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	report, err := backend.Sync(ctx, from, to)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "synced %d, skipped %d, failed %d\n", report.Count, report.Skipped, report.Failed)
	if opts.Verbose && len(report.Results) > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ORDER\tSTATUS\tENTRIES\tERROR")
		for _, r := range report.Results {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.OrderID, r.Status, r.Transactions, r.Error)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d orders failed to sync", report.Failed)
	}
	return nil
}
