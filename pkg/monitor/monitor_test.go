package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-ble/ble"
	. "github.com/ifeco/ble-telemetry/internal"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/telemetry"
	"gotest.tools/assert"
	"gotest.tools/poll"
)

const testAddr = "11:22:33:44:55:66"

type fakeConnection struct {
	mutex        sync.Mutex
	monitor      *Monitor
	handler      func([]byte)
	connects     int
	connectErr   error
	subscribeErr error
	value        []byte
	subscribedTo string
	rssi         *models.RssiMap
}

func (c *fakeConnection) GetConnectedAddr() string    { return testAddr }
func (c *fakeConnection) GetRssiMap() *models.RssiMap { return c.rssi }
func (c *fakeConnection) Discover(_ context.Context, _ time.Duration, f ble.AdvFilter) ([]string, error) {
	if !f(NewDummyAdv(testAddr, -50)) {
		return nil, nil
	}
	return []string{testAddr}, nil
}
func (c *fakeConnection) Connect(_ context.Context, f ble.AdvFilter) error {
	c.mutex.Lock()
	c.connects++
	err := c.connectErr
	c.mutex.Unlock()
	if err != nil {
		return err
	}
	if !f(NewDummyAdv(testAddr, -50)) {
		return errors.New("filter rejected peripheral")
	}
	c.monitor.OnConnected(testAddr, -50)
	return nil
}
func (c *fakeConnection) Subscribe(uuid string, h func([]byte)) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.handler = h
	c.subscribedTo = uuid
	return nil
}
func (c *fakeConnection) ReadValue(string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.value, nil
}
func (c *fakeConnection) Disconnect() error {
	c.drop()
	return nil
}

func (c *fakeConnection) notify(b []byte) {
	c.mutex.Lock()
	h := c.handler
	c.mutex.Unlock()
	h(b)
}

func (c *fakeConnection) drop() {
	c.mutex.Lock()
	c.handler = nil
	c.mutex.Unlock()
	c.monitor.OnDisconnected()
}

func (c *fakeConnection) connectCount() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connects
}

func (c *fakeConnection) subscribed() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.handler != nil
}

type testListener struct {
	mutex        sync.Mutex
	readings     []models.Reading
	errs         []error
	connected    int
	disconnected int
}

func (l *testListener) OnConnected(string, int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.connected++
}
func (l *testListener) OnDisconnected() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.disconnected++
}
func (l *testListener) OnReading(r models.Reading) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.readings = append(l.readings, r)
}
func (l *testListener) OnInternalError(err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.errs = append(l.errs, err)
}

func (l *testListener) readingCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.readings)
}

func getTestMonitor() (*Monitor, *fakeConnection, *testListener) {
	return getTestMonitorWith(DefaultConfig())
}

func getTestMonitorWith(config Config) (*Monitor, *fakeConnection, *testListener) {
	l := &testListener{}
	m := newMonitor(config, l)
	c := &fakeConnection{monitor: m, rssi: models.NewRssiMap()}
	m.connection = c
	return m, c, l
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if cond() {
			return poll.Success()
		}
		return poll.Continue("waiting for %s", desc)
	}, poll.WithTimeout(time.Second), poll.WithDelay(time.Millisecond))
}

func TestReadings(t *testing.T) {
	m, c, l := getTestMonitor()
	assert.NilError(t, m.connectAndSubscribe(context.Background()))
	assert.Equal(t, m.Status(), models.Connected)

	c.notify([]byte("12.5,87.3,24.1"))
	c.notify([]byte("13.0,87.2,24.0"))
	waitFor(t, "two readings", func() bool { return l.readingCount() == 2 })

	assert.DeepEqual(t, l.readings[0].Sample, telemetry.Sample{Speed: 12.5, Battery: 87.3, Temperature: 24.1})
	assert.Equal(t, l.readings[0].Addr, testAddr)
	assert.Equal(t, l.readings[1].Sample.Speed, 13.0)
	assert.Equal(t, l.connected, 1)
}

func TestMalformedReading(t *testing.T) {
	m, c, l := getTestMonitor()
	assert.NilError(t, m.connectAndSubscribe(context.Background()))
	c.notify([]byte("12.5;87.3"))
	c.notify([]byte("5.0,100.0,25.0"))
	waitFor(t, "one reading", func() bool { return l.readingCount() == 1 })
	assert.Equal(t, len(l.errs), 1)
	assert.Assert(t, errors.Is(l.errs[0], telemetry.ErrMalformedPayload))
}

func TestDisconnectDropsQueue(t *testing.T) {
	m, c, l := getTestMonitor()
	assert.NilError(t, m.connectAndSubscribe(context.Background()))
	h := c.handler
	c.drop()
	assert.Equal(t, m.Status(), models.Disconnected)
	assert.Equal(t, l.disconnected, 1)
	h([]byte("12.5,87.3,24.1"))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, l.readingCount(), 0)
}

func TestSubscribeFailure(t *testing.T) {
	m, c, l := getTestMonitor()
	c.subscribeErr = errors.New("cccd missing")
	err := m.connectAndSubscribe(context.Background())
	assert.ErrorContains(t, err, "cccd missing")
	assert.Equal(t, m.Status(), models.Disconnected)
	assert.Equal(t, l.disconnected, 1)
}

func TestRunReconnects(t *testing.T) {
	m, c, l := getTestMonitor()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	waitFor(t, "subscription", c.subscribed)
	c.drop()
	waitFor(t, "second connect", func() bool { return c.connectCount() == 2 && c.subscribed() })
	c.notify([]byte("6.0,99.0,25.1"))
	waitFor(t, "reading", func() bool { return l.readingCount() == 1 })
	cancel()
	<-done
	assert.Equal(t, m.Status(), models.Disconnected)
}

func TestRunStopsOnCancelWhileFailing(t *testing.T) {
	m, c, _ := getTestMonitor()
	c.connectErr = errors.New("no peripheral in range")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	waitFor(t, "connect attempt", func() bool { return c.connectCount() == 1 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, m.Status(), models.Disconnected)
}

func TestDiscover(t *testing.T) {
	m, _, _ := getTestMonitor()
	addrs, err := m.Discover(context.Background(), time.Millisecond)
	assert.NilError(t, err)
	assert.DeepEqual(t, addrs, []string{testAddr})
}

func TestReadLatest(t *testing.T) {
	m, c, _ := getTestMonitor()
	c.value = []byte("12.5,99.0,30.1")
	r, err := m.ReadLatest()
	assert.NilError(t, err)
	assert.Equal(t, r.Addr, testAddr)
	assert.DeepEqual(t, r.Sample, telemetry.Sample{Speed: 12.5, Battery: 99.0, Temperature: 30.1})

	c.value = []byte{}
	_, err = m.ReadLatest()
	assert.Assert(t, errors.Is(err, telemetry.ErrMalformedPayload))
}

func TestConfiguredService(t *testing.T) {
	const otherChar = "0000AAA1-0000-1000-8000-00805F9B34FB"
	config := DefaultConfig()
	config.CharUUID = otherChar
	m, c, _ := getTestMonitorWith(config)
	assert.NilError(t, m.connectAndSubscribe(context.Background()))
	assert.Equal(t, c.subscribedTo, otherChar)

	m, _, _ = getTestMonitorWith(Config{Name: "OTHER", ServiceUUID: "0000AAA0-0000-1000-8000-00805F9B34FB", CharUUID: otherChar})
	assert.ErrorContains(t, m.connectAndSubscribe(context.Background()), "filter rejected")
	addrs, err := m.Discover(context.Background(), time.Millisecond)
	assert.NilError(t, err)
	assert.Equal(t, len(addrs), 0)
}

func TestRssiMap(t *testing.T) {
	m, c, _ := getTestMonitor()
	c.rssi.Set(testAddr, -42)
	assert.Equal(t, m.RssiMap().String(), `{"11:22:33:44:55:66":-42}`)
}
