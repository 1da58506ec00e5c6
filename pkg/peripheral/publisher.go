package peripheral

import (
	"context"
	"time"

	"github.com/ifeco/ble-telemetry/pkg/util"
)

type ticker interface {
	Tick() bool
}

// Publisher drives publish cycles on a fixed interval
type Publisher struct {
	target   ticker
	interval time.Duration
}

// NewPublisher returns a publisher ticking target every interval
func NewPublisher(target ticker, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = util.PublishInterval
	}
	return &Publisher{target: target, interval: interval}
}

// Run ticks until ctx is done. Missed ticks are not replayed.
func (p *Publisher) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.target.Tick()
		}
	}
}
