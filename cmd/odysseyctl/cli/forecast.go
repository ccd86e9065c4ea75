package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-commerce/internal/cashflow"
)

// ForecastOptions holds flags for the forecast command.
type ForecastOptions struct {
	*RootOptions
	Days    int
	Summary bool
}

// NewForecastCommand creates the forecast command.
func NewForecastCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ForecastOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project the cash balance forward",
		Long: `Project the balance day by day from the trailing 30-day average inflow
and outflow, starting at the current all-time balance.

Examples:
  odysseyctl forecast
  odysseyctl forecast --days 30 --summary
  odysseyctl forecast --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", cashflow.DefaultForecastDays, "number of days to project")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print only the summary")

	return cmd
}

func runForecast(opts *ForecastOptions, cmd *cobra.Command) error {
	if opts.Days < 1 {
		return fmt.Errorf("--days must be positive")
	}
	ctx := cmd.Context()
	backend, err := opts.factory.Backend(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	forecast, err := backend.Forecast(ctx, opts.Days)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if opts.Summary {
			return writeJSON(out, forecast.Summary)
		}
		return writeJSON(out, forecast)
	}

	s := forecast.Summary
	fmt.Fprintf(out, "starting balance  %.2f\n", s.StartingBalance)
	fmt.Fprintf(out, "ending balance    %.2f\n", s.EndingBalance)
	fmt.Fprintf(out, "avg daily in/out  %.2f / %.2f\n", s.AvgDailyInflow, s.AvgDailyOutflow)
	fmt.Fprintf(out, "horizon           %d days (history %d days)\n", s.ForecastDays, s.HistoryDays)
	if opts.Summary {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tBALANCE\tINFLOW\tOUTFLOW\tNET\t")
	for _, d := range forecast.Days {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n", d.Date, d.ProjectedBalance, d.ProjectedInflow, d.ProjectedOutflow, d.NetProjectedFlow)
	}
	return tw.Flush()
}
