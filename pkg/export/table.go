package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kilianp07/killchain/core/model"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.Bold, color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

// WriteTable prints a human readable report of the schedule grouped by
// target. Colors follow color.NoColor.
func WriteTable(w io.Writer, s model.Schedule, chain model.KillChain) error {
	status := green(s.Status)
	if !s.Optimal {
		status = yellow(s.Status)
	}
	if _, err := fmt.Fprintf(w, "%s %s  %s %d\n", bold("status:"), status, bold("makespan:"), s.Makespan); err != nil {
		return err
	}
	if s.RunID != "" {
		if _, err := fmt.Fprintf(w, "%s %s\n", bold("run:"), dim(s.RunID)); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("TARGET\tPHASE\tPLATFORM\tSTART\tDURATION\tEND"))
	var last model.TargetID = -1
	for _, r := range s.Results {
		target := ""
		if r.Target != last {
			target = cyan(fmt.Sprintf("%d", r.Target))
			last = r.Target
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", target, chain.Name(r.Phase), r.Platform, r.Start, r.Duration, r.End)
	}
	return tw.Flush()
}
