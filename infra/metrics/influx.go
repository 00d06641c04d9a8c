package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/infra/logger"
)

// InfluxSink writes run outcomes and assignments to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one scheduling_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(ev))
}

func runPoint(ev coremetrics.RunEvent) *write.Point {
	return write.NewPointWithMeasurement("scheduling_run").
		AddTag("run_id", ev.RunID).
		AddTag("status", ev.Status).
		AddTag("optimal", strconv.FormatBool(ev.Optimal)).
		AddField("makespan", ev.Makespan).
		AddField("horizon", ev.Horizon).
		AddField("lower_bound", ev.LowerBound).
		AddField("targets", ev.Targets).
		AddField("slots", ev.Slots).
		AddField("alternatives", ev.Alternatives).
		AddField("nodes", ev.Nodes).
		AddField("solve_ms", ev.SolveTime.Milliseconds()).
		SetTime(ev.Time)
}

// RecordAssignments writes one phase_assignment point per result.
func (s *InfluxSink) RecordAssignments(evs []coremetrics.AssignmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, e := range evs {
		if err := s.writeAPI.WritePoint(ctx, assignmentPoint(e)); err != nil {
			return err
		}
	}
	return nil
}

func assignmentPoint(e coremetrics.AssignmentEvent) *write.Point {
	r := e.Result
	return write.NewPointWithMeasurement("phase_assignment").
		AddTag("run_id", e.RunID).
		AddTag("target_id", strconv.Itoa(int(r.Target))).
		AddTag("phase_id", strconv.Itoa(int(r.Phase))).
		AddTag("platform_id", strconv.Itoa(int(r.Platform))).
		AddField("start", r.Start).
		AddField("duration", r.Duration).
		AddField("end", r.End).
		SetTime(e.Time)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
