package peripheral

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/connection"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"gotest.tools/assert"
	"gotest.tools/poll"
)

type countingAdvertiser struct {
	calls int
}

func (a *countingAdvertiser) StartAdvertising() error {
	a.calls++
	return nil
}

type fakeTransport struct {
	serveErr error
	service  *ble.Service
	closed   bool
}

func (f *fakeTransport) Serve(s *ble.Service) error {
	f.service = s
	return f.serveErr
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

type countingTicker struct {
	mutex sync.Mutex
	ticks int
}

func (c *countingTicker) Tick() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.ticks++
	return true
}

func (c *countingTicker) count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.ticks
}

func TestTickSkipsWhileDisconnected(t *testing.T) {
	adv := &countingAdvertiser{}
	tracker := connection.NewTracker(adv)
	server := getDummyServer(tracker, nil)
	before := server.generator.Current()

	assert.Assert(t, !server.Tick())
	assert.DeepEqual(t, server.generator.Current(), before)
	assert.Equal(t, len(server.Value()), 0)

	tracker.OnConnect(dummyAddr)
	assert.Assert(t, server.Tick())
	published := string(server.Value())
	assert.Assert(t, published != "")

	tracker.OnDisconnect(dummyAddr)
	assert.Equal(t, adv.calls, 1)
	after := server.generator.Current()
	for i := 0; i < 10; i++ {
		assert.Assert(t, !server.Tick())
	}
	assert.DeepEqual(t, server.generator.Current(), after)
	assert.Equal(t, string(server.Value()), published)

	tracker.OnConnect(dummyAddr)
	assert.Assert(t, server.Tick())
	assert.Equal(t, server.generator.Current().Speed, 1.0)
}

func TestPublisherRun(t *testing.T) {
	target := &countingTicker{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPublisher(target, 5*time.Millisecond).Run(ctx)
		close(done)
	}()
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if target.count() >= 3 {
			return poll.Success()
		}
		return poll.Continue("%d ticks", target.count())
	}, poll.WithTimeout(time.Second), poll.WithDelay(time.Millisecond))
	cancel()
	<-done
}

func TestNewPublisherDefaultInterval(t *testing.T) {
	p := NewPublisher(&countingTicker{}, 0)
	assert.Equal(t, p.interval, util.PublishInterval)
}

func TestRun(t *testing.T) {
	l := &testListener{}
	server := getDummyServer(fixedState(false), l)
	server.config.Interval = time.Millisecond
	tr := &fakeTransport{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NilError(t, server.Run(ctx, tr))
	assert.Assert(t, tr.closed)
	assert.Assert(t, util.UuidEqualStr(tr.service.UUID, util.TelemetryServiceUUID))
	assert.DeepEqual(t, l.statuses, []models.PeripheralStatus{models.Running, models.Stopped})
	assert.Equal(t, server.Status(), models.Stopped)
}

func TestRunServeFailure(t *testing.T) {
	l := &testListener{}
	server := getDummyServer(fixedState(true), l)
	tr := &fakeTransport{serveErr: errors.New("can't add service")}
	err := server.Run(context.Background(), tr)
	assert.ErrorContains(t, err, "can't add service")
	assert.Assert(t, !tr.closed)
	assert.DeepEqual(t, l.statuses, []models.PeripheralStatus{models.Crashed})
}
