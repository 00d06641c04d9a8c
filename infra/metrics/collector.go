package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/killchain/core/metrics"
	"github.com/kilianp07/killchain/core/monitoring"
	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/internal/eventbus"
)

// progressBuffer absorbs bursts of improving solutions.
const progressBuffer = 64

// StartProgressCollector subscribes to the progress bus and records every
// improving solution on sinks implementing ProgressRecorder.
// It stops when the context is canceled or the bus is closed.
func StartProgressCollector(ctx context.Context, bus *eventbus.TypedBus[scheduler.ProgressEvent], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.ProgressRecorder)
	if !ok {
		return
	}
	sub := bus.SubscribeSize(progressBuffer)
	monitoring.Go(func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordProgress(coremetrics.ProgressEvent{
					RunID:     ev.RunID,
					Elapsed:   ev.Elapsed,
					Bound:     ev.Bound,
					Objective: ev.Objective,
					Solutions: ev.Solutions,
					Time:      time.Now(),
				})
			}
		}
	})
}
