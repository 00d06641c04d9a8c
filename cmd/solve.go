package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kilianp07/killchain/app"
	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/ingest"
	"github.com/kilianp07/killchain/pkg/export"
)

var (
	tablePaths []string
	outFormat  string
	chartPath  string
	outputPath string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Schedule one or more assignment tables",
	RunE:  solve,
}

func init() {
	solveCmd.Flags().StringSliceVarP(&tablePaths, "table", "t", nil, "assignment table (csv, json or yaml); repeatable")
	solveCmd.Flags().StringVarP(&outFormat, "format", "f", "table", "output format: table, json or csv")
	solveCmd.Flags().StringVar(&chartPath, "chart", "", "write an HTML chart of the schedule")
	solveCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the schedule to a file instead of stdout")
	_ = solveCmd.MarkFlagRequired("table")
	rootCmd.AddCommand(solveCmd)
}

func solve(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch outFormat {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("unknown format %q", outFormat)
	}
	if chartPath != "" && len(tablePaths) > 1 {
		return fmt.Errorf("--chart needs a single table")
	}

	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()
	svc.Start(ctx)

	tables := make([]*model.AssignmentTable, len(tablePaths))
	for i, p := range tablePaths {
		t, err := ingest.LoadFile(p, svc.Chain())
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		tables[i] = t
	}

	var results []app.Result
	if len(tables) == 1 {
		res, err := svc.Solve(ctx, tablePaths[0], tables[0])
		res.Outcome.Err = err
		results = []app.Result{res}
	} else {
		results, err = svc.SolveAll(ctx, tablePaths, tables)
		if err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	var errs []error
	for _, r := range results {
		if r.Outcome.Err != nil {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Source, r.Outcome.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Source, r.Outcome.Err))
			continue
		}
		if err := write(w, r, svc.Chain()); err != nil {
			return err
		}
		if chartPath != "" {
			if err := writeChart(chartPath, *r.Outcome.Schedule); err != nil {
				return err
			}
		}
	}
	return errors.Join(errs...)
}

func write(w io.Writer, r app.Result, chain model.KillChain) error {
	s := *r.Outcome.Schedule
	switch outFormat {
	case "json":
		return export.WriteJSON(w, s)
	case "csv":
		return export.WriteCSV(w, s, chain)
	}
	header := color.New(color.Bold)
	if _, err := header.Fprintf(w, "%s  run %s  %s  makespan %d", r.Source, s.RunID, s.Status, s.Makespan); err != nil {
		return err
	}
	if r.Cached {
		fmt.Fprint(w, "  (cached)")
	}
	fmt.Fprintln(w)
	return export.WriteTable(w, s, chain)
}

func writeChart(path string, s model.Schedule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteChart(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
