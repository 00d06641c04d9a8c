package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/killchain/config"
	corecache "github.com/kilianp07/killchain/core/cache"
	"github.com/kilianp07/killchain/core/cp"
	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/model"
	"github.com/kilianp07/killchain/core/monitoring"
	coremqtt "github.com/kilianp07/killchain/core/mqtt"
	"github.com/kilianp07/killchain/core/runlog"
	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/core/search"
	"github.com/kilianp07/killchain/infra/cache"
	"github.com/kilianp07/killchain/infra/logger"
	"github.com/kilianp07/killchain/infra/metrics"
	"github.com/kilianp07/killchain/infra/mqtt"
	"github.com/kilianp07/killchain/internal/eventbus"
)

// ErrVerification is returned when an extracted schedule breaks the table.
var ErrVerification = errors.New("schedule failed verification")

// Service wires the scheduler to its run log, cache, metrics and publisher.
type Service struct {
	cfg    *config.Config
	chain  model.KillChain
	runner *scheduler.Runner
	sink   coremetrics.MetricsSink
	bus    *eventbus.TypedBus[scheduler.ProgressEvent]
	store  runlog.Store
	cache  corecache.Cache
	pub    coremqtt.Publisher
	paho   *mqtt.PahoClient
	log    logger.Logger
}

// Option overrides a component built from the configuration.
type Option func(*Service)

// WithStore sets the run log store.
func WithStore(s runlog.Store) Option { return func(svc *Service) { svc.store = s } }

// WithCache sets the schedule cache.
func WithCache(c corecache.Cache) Option { return func(svc *Service) { svc.cache = c } }

// WithPublisher sets the schedule publisher.
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.pub = p } }

// WithMetricsSink sets the metrics sink.
func WithMetricsSink(s coremetrics.MetricsSink) Option { return func(svc *Service) { svc.sink = s } }

// Result is the outcome of solving one table through the service.
type Result struct {
	Source  string
	Outcome scheduler.Outcome
	// Cached is set when the schedule came from the cache without solving.
	Cached bool
}

// New creates a Service from the configuration. Components given as options
// are used as is; the others are built from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	svc := &Service{
		cfg:   cfg,
		chain: cfg.KillChain(),
		bus:   eventbus.NewTyped[scheduler.ProgressEvent](),
		log:   logger.New("service"),
	}
	for _, o := range opts {
		o(svc)
	}

	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.store == nil {
		store, err := runlog.Open(cfg.RunLog.Options())
		if err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
		svc.store = store
	}
	if svc.cache == nil {
		svc.cache = corecache.Nop{}
		if cfg.Cache.Enabled {
			rc, err := cache.NewRedisCache(cfg.Cache)
			if err != nil {
				return nil, fmt.Errorf("cache: %w", err)
			}
			svc.cache = rc
		}
	}
	if svc.pub == nil && cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.pub = client
		svc.paho = client
	}

	svc.runner = scheduler.NewRunner(cfg.Scheduler,
		search.New(search.WithLogger(logger.New("search"))),
		scheduler.WithLogger(logger.New("scheduler")),
		scheduler.WithMetrics(svc.sink),
		scheduler.WithBus(svc.bus),
		scheduler.WithConcurrency(cfg.Solver.Concurrency),
	)
	return svc, nil
}

// Chain returns the kill chain tables are read against.
func (s *Service) Chain() model.KillChain { return s.chain }

// Start launches the background consumers of solver progress and, when a
// port is configured, the Prometheus endpoint. They stop with ctx.
func (s *Service) Start(ctx context.Context) {
	metrics.StartProgressCollector(ctx, s.bus, s.sink)
	mqtt.ForwardProgress(ctx, s.bus, s.paho)
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		monitoring.Go(func() {
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
}

// Solve schedules one table. A proven schedule for the same table and
// options is served from the cache.
func (s *Service) Solve(ctx context.Context, source string, table *model.AssignmentTable) (Result, error) {
	key, err := corecache.Key(table.Fingerprint(), s.cfg.Scheduler)
	if err != nil {
		return Result{Source: source}, err
	}
	if sched, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warnf("cache lookup %s: %v", source, err)
	} else if ok {
		s.log.Infof("%s: serving cached schedule of run %s", source, sched.RunID)
		return Result{Source: source, Outcome: cachedOutcome(sched), Cached: true}, nil
	}

	out, err := s.runner.Run(ctx, table)
	return s.finish(ctx, source, table, key, out, err)
}

// SolveAll schedules independent tables in parallel, bypassing the cache
// lookup. Results are returned in input order.
func (s *Service) SolveAll(ctx context.Context, sources []string, tables []*model.AssignmentTable) ([]Result, error) {
	if len(sources) != len(tables) {
		return nil, fmt.Errorf("%d sources for %d tables", len(sources), len(tables))
	}
	outs, err := s.runner.RunAll(ctx, tables)
	if err != nil {
		return nil, err
	}
	res := make([]Result, len(outs))
	for i, out := range outs {
		key, kerr := corecache.Key(tables[i].Fingerprint(), s.cfg.Scheduler)
		if kerr != nil {
			return nil, kerr
		}
		r, ferr := s.finish(ctx, sources[i], tables[i], key, out, out.Err)
		r.Outcome.Err = ferr
		res[i] = r
	}
	return res, nil
}

func (s *Service) finish(ctx context.Context, source string, table *model.AssignmentTable, key string, out scheduler.Outcome, err error) (Result, error) {
	res := Result{Source: source, Outcome: out}
	if err == nil && out.Schedule != nil {
		if verr := scheduler.Verify(table, *out.Schedule); verr != nil {
			err = fmt.Errorf("%w: %v", ErrVerification, verr)
			monitoring.CaptureException(err, map[string]string{"run_id": out.RunID, "source": source})
			res.Outcome.Schedule = nil
		}
	}

	if aerr := s.store.Append(ctx, record(source, table, res.Outcome, err)); aerr != nil {
		s.log.Warnf("run log append %s: %v", out.RunID, aerr)
	}
	if err != nil {
		return res, err
	}

	sched := *res.Outcome.Schedule
	if sched.Optimal {
		if perr := s.cache.Put(ctx, key, sched); perr != nil {
			s.log.Warnf("cache store %s: %v", out.RunID, perr)
		}
	}
	if s.pub != nil {
		if perr := s.pub.PublishSchedule(ctx, sched); perr != nil {
			s.log.Errorf("publish %s: %v", out.RunID, perr)
		}
	}
	return res, nil
}

// Inspection summarises the model built for a table without solving it.
type Inspection struct {
	Targets      int
	Platforms    int
	Alternatives int
	Skipped      int
	Slots        int
	EmptySlots   int
	EmptyTargets []model.TargetID
	Horizon      int64
	LowerBound   int64
	Variables    int
	Constraints  int
	NoOverlaps   int
}

// Inspect builds the model for table and reports its size.
func (s *Service) Inspect(table *model.AssignmentTable) (Inspection, error) {
	p, err := scheduler.NewBuilder(s.cfg.Scheduler, logger.New("builder")).Build(table)
	if err != nil {
		return Inspection{}, err
	}
	st := p.Model.Stats()
	return Inspection{
		Targets:      len(table.Targets()),
		Platforms:    len(table.Platforms()),
		Alternatives: len(p.Alts),
		Skipped:      len(table.Skipped()),
		Slots:        len(p.Slots),
		EmptySlots:   p.EmptySlots,
		EmptyTargets: p.EmptyTargets,
		Horizon:      p.Horizon,
		LowerBound:   p.LowerBound,
		Variables:    st.Variables,
		Constraints:  st.Linears + st.ExactlyOnes + st.NoOverlaps,
		NoOverlaps:   st.NoOverlaps,
	}, nil
}

// Runs queries the run log.
func (s *Service) Runs(ctx context.Context, q runlog.Query) ([]runlog.Record, error) {
	return s.store.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.paho != nil {
		s.paho.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	monitoring.Flush(2 * time.Second)
	return s.store.Close()
}

func cachedOutcome(sched model.Schedule) scheduler.Outcome {
	return scheduler.Outcome{
		RunID:    sched.RunID,
		State:    scheduler.StateExtracted,
		Status:   cp.ParseStatus(sched.Status),
		Schedule: &sched,
	}
}

func record(source string, table *model.AssignmentTable, out scheduler.Outcome, err error) runlog.Record {
	rec := runlog.Record{
		RunID:       out.RunID,
		Timestamp:   time.Now(),
		Source:      source,
		Fingerprint: table.Fingerprint(),
		Status:      out.Status.String(),
		Horizon:     out.Horizon,
		LowerBound:  out.LowerBound,
		Targets:     out.Targets,
		Slots:       out.Slots,
		Nodes:       out.Nodes,
		SolveMS:     out.SolveTime.Milliseconds(),
		Schedule:    out.Schedule,
	}
	if out.Schedule != nil {
		rec.Makespan = out.Schedule.Makespan
		rec.Optimal = out.Schedule.Optimal
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
