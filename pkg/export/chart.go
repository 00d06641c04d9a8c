package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/killchain/core/model"
)

// WriteChart renders an HTML page with the busy time of every platform and
// the completion time of every target.
func WriteChart(w io.Writer, s model.Schedule) error {
	load := charts.NewBar()
	load.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Platform load", Subtitle: fmt.Sprintf("makespan %d", s.Makespan)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Platform"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Busy time"}),
	)
	byPlatform := s.ByPlatform()
	platforms := make([]model.PlatformID, 0, len(byPlatform))
	for pl := range byPlatform {
		platforms = append(platforms, pl)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	var px []string
	var busy, tasks []opts.BarData
	for _, pl := range platforms {
		var total int64
		for _, r := range byPlatform[pl] {
			total += r.Duration
		}
		px = append(px, fmt.Sprintf("%d", pl))
		busy = append(busy, opts.BarData{Value: total})
		tasks = append(tasks, opts.BarData{Value: len(byPlatform[pl])})
	}
	load.SetXAxis(px).
		AddSeries("Busy time", busy).
		AddSeries("Assignments", tasks)

	done := charts.NewBar()
	done.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Target completion"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Target"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Completion time"}),
	)
	completion := s.CompletionTimes()
	targets := make([]model.TargetID, 0, len(completion))
	for t := range completion {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	var tx []string
	var ends []opts.BarData
	for _, t := range targets {
		tx = append(tx, fmt.Sprintf("%d", t))
		ends = append(ends, opts.BarData{Value: completion[t]})
	}
	done.SetXAxis(tx).AddSeries("Completion", ends)

	page := components.NewPage()
	page.PageTitle = "Kill chain schedule"
	page.AddCharts(load, done)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %v", err)
	}
	return nil
}
