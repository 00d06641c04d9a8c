package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/killchain/ingest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <table>",
	Short: "Report the size of the model built for a table",
	Args:  cobra.ExactArgs(1),
	RunE:  inspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func inspect(cmd *cobra.Command, args []string) error {
	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()

	table, err := ingest.LoadFile(args[0], svc.Chain())
	if err != nil {
		return err
	}
	ins, err := svc.Inspect(table)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	rows := []struct {
		k string
		v any
	}{
		{"targets", ins.Targets},
		{"platforms", ins.Platforms},
		{"alternatives", ins.Alternatives},
		{"skipped entries", ins.Skipped},
		{"phase slots", ins.Slots},
		{"empty slots", ins.EmptySlots},
		{"empty targets", ins.EmptyTargets},
		{"horizon", ins.Horizon},
		{"lower bound", ins.LowerBound},
		{"variables", ins.Variables},
		{"constraints", ins.Constraints},
		{"platform timelines", ins.NoOverlaps},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%v\n", r.k, r.v)
	}
	return tw.Flush()
}
