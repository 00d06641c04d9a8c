package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/killchain/core/runlog"
)

var (
	runsStatus string
	runsSince  time.Duration
	runsLimit  int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List past scheduling runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "only runs with this status, e.g. OPTIMAL")
	runsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs newer than this duration")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "print records as JSON lines")
	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()

	q := runlog.Query{Status: runsStatus, Limit: runsLimit}
	if len(args) == 1 {
		q.RunID = args[0]
	}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	recs, err := svc.Runs(context.Background(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsJSON {
		enc := json.NewEncoder(out)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tSOURCE\tSTATUS\tMAKESPAN\tLB\tSOLVE_MS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.Timestamp.Format(time.RFC3339), r.RunID, r.Source, r.Status, r.Makespan, r.LowerBound, r.SolveMS)
	}
	return tw.Flush()
}
