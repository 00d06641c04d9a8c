package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/killchain/core/cp"
	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/internal/eventbus"
)

type progressSink struct {
	coremetrics.NopSink
	mu  sync.Mutex
	got []coremetrics.ProgressEvent
}

func (p *progressSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, ev)
	return nil
}

func (p *progressSink) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestStartProgressCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := eventbus.NewTyped[scheduler.ProgressEvent]()
	sink := &progressSink{}
	StartProgressCollector(ctx, bus, sink)

	// subscription happens synchronously so the publish is not lost
	bus.Publish(scheduler.ProgressEvent{RunID: "r", Progress: cp.Progress{Objective: 9, Bound: 7, Solutions: 1}})
	assert.Eventually(t, func() bool { return sink.len() == 1 }, time.Second, 5*time.Millisecond)
	sink.mu.Lock()
	assert.Equal(t, int64(9), sink.got[0].Objective)
	assert.Equal(t, "r", sink.got[0].RunID)
	sink.mu.Unlock()
	bus.Close()
}
