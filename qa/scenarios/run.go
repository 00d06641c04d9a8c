package scenarios

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/core/search"
	"github.com/kilianp07/killchain/infra/metrics"
	"github.com/kilianp07/killchain/infra/mqtt"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	pub := mqtt.NewMemoryPublisher()

	tbl, err := sc.Table()
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	runner := scheduler.NewRunner(sc.Options(), search.New(), scheduler.WithMetrics(sink))
	out, _ := runner.Run(context.Background(), tbl, scheduler.WithRunID(sc.Name))

	if got := out.Status.String(); got != sc.Expected.Status {
		t.Errorf("scenario %s expected status %s, got %s (%v)", sc.Name, sc.Expected.Status, got, out.Err)
	}
	if out.Schedule != nil {
		if err := scheduler.Verify(tbl, *out.Schedule); err != nil {
			t.Errorf("scenario %s produced an invalid schedule: %v", sc.Name, err)
		}
		if out.Schedule.Makespan != sc.Expected.Makespan {
			t.Errorf("scenario %s expected makespan %d, got %d", sc.Name, sc.Expected.Makespan, out.Schedule.Makespan)
		}
		if err := pub.PublishSchedule(context.Background(), *out.Schedule); err != nil {
			t.Errorf("publish: %v", err)
		}
	}
	if n := len(pub.Published()); n != sc.Expected.Published {
		t.Errorf("scenario %s expected %d published, got %d", sc.Name, sc.Expected.Published, n)
	}

	n, err := testutil.GatherAndCount(reg, "killchain_runs_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("scenario %s expected one run series, got %d", sc.Name, n)
	}
}
