package metrics

import (
	"strconv"

	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling runs in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	solve       *prometheus.HistogramVec
	makespan    prometheus.Gauge
	lowerBound  prometheus.Gauge
	assignments *prometheus.CounterVec
	incumbent   prometheus.Gauge
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "killchain_runs_total",
		Help: "Total number of scheduling runs by final status",
	}, []string{"status", "optimal"})
	solve := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "killchain_solve_seconds",
		Help:    "Time spent in the solver per run",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	makespan := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "killchain_makespan",
		Help: "Makespan of the last extracted schedule",
	})
	lowerBound := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "killchain_makespan_lower_bound",
		Help: "Critical path lower bound of the last built model",
	})
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "killchain_assignments_total",
		Help: "Phase assignments per platform",
	}, []string{"platform_id"})
	incumbent := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "killchain_incumbent_objective",
		Help: "Objective of the latest improving solution",
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if solve, err = register(reg, solve); err != nil {
		return nil, err
	}
	if makespan, err = register(reg, makespan); err != nil {
		return nil, err
	}
	if lowerBound, err = register(reg, lowerBound); err != nil {
		return nil, err
	}
	if assignments, err = register(reg, assignments); err != nil {
		return nil, err
	}
	if incumbent, err = register(reg, incumbent); err != nil {
		return nil, err
	}
	return &PromSink{
		runs:        runs,
		solve:       solve,
		makespan:    makespan,
		lowerBound:  lowerBound,
		assignments: assignments,
		incumbent:   incumbent,
	}, nil
}

// register returns the already registered collector when c is a duplicate.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun counts the run and records its latency and objective gauges.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.WithLabelValues(ev.Status, strconv.FormatBool(ev.Optimal)).Inc()
	s.solve.WithLabelValues(ev.Status).Observe(ev.SolveTime.Seconds())
	s.lowerBound.Set(float64(ev.LowerBound))
	if ev.Status == "OPTIMAL" || ev.Status == "FEASIBLE" {
		s.makespan.Set(float64(ev.Makespan))
	}
	return nil
}

// RecordAssignments increments the per-platform assignment counter.
func (s *PromSink) RecordAssignments(evs []coremetrics.AssignmentEvent) error {
	for _, e := range evs {
		s.assignments.WithLabelValues(strconv.Itoa(int(e.Result.Platform))).Inc()
	}
	return nil
}

// RecordProgress sets the incumbent gauge.
func (s *PromSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	s.incumbent.Set(float64(ev.Objective))
	return nil
}
