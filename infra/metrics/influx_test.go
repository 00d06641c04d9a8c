package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/model"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.RunEvent{
		RunID:     "run-1",
		Status:    "OPTIMAL",
		Optimal:   true,
		Makespan:  8,
		Horizon:   8,
		Targets:   1,
		Slots:     2,
		SolveTime: 3 * time.Millisecond,
		Time:      now,
	}
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	expected := strings.TrimSpace(write.PointToLineProtocol(runPoint(ev), time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
	if !strings.Contains(rec.bodies[0], "makespan=8i") {
		t.Errorf("makespan field missing: %s", rec.bodies[0])
	}
}

func TestInfluxSink_RecordAssignments(t *testing.T) {
	rec := &bodyRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	evs := []coremetrics.AssignmentEvent{
		{RunID: "r", Result: model.ScheduleResult{Target: 1, Phase: 1, Platform: 1, Start: 0, Duration: 3, End: 3}, Time: now},
		{RunID: "r", Result: model.ScheduleResult{Target: 1, Phase: 2, Platform: 2, Start: 3, Duration: 5, End: 8}, Time: now},
	}
	if err := sink.RecordAssignments(evs); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected 2 writes got %d", len(rec.bodies))
	}
	p := write.NewPointWithMeasurement("phase_assignment").
		AddTag("run_id", "r").
		AddTag("target_id", "1").
		AddTag("phase_id", "2").
		AddTag("platform_id", "2").
		AddField("start", int64(3)).
		AddField("duration", int64(5)).
		AddField("end", int64(8)).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if rec.bodies[1] != exp {
		t.Errorf("unexpected body %q want %q", rec.bodies[1], exp)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
