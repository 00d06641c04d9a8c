package mqtt

import (
	"context"

	coremon "github.com/kilianp07/killchain/core/monitoring"
	coremqtt "github.com/kilianp07/killchain/core/mqtt"
	"github.com/kilianp07/killchain/core/scheduler"
	"github.com/kilianp07/killchain/internal/eventbus"
)

const progressBuffer = 64

// ForwardProgress publishes every progress event of bus until ctx ends or
// the bus is closed.
func ForwardProgress(ctx context.Context, bus *eventbus.TypedBus[scheduler.ProgressEvent], p *PahoClient) {
	if bus == nil || p == nil {
		return
	}
	sub := bus.SubscribeSize(progressBuffer)
	coremon.Go(func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := p.PublishProgress(coremqtt.ProgressMessage{
					RunID:     ev.RunID,
					Objective: ev.Objective,
					Bound:     ev.Bound,
					Solutions: ev.Solutions,
					ElapsedMS: ev.Elapsed.Milliseconds(),
				}); err != nil {
					p.logger.Warnf("progress publish: %v", err)
				}
			}
		}
	})
}
