package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/golang-collections/go-datastructures/queue"
	telble "github.com/ifeco/ble-telemetry/pkg/ble"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/telemetry"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// ReconnectInterval is the pause between two connection attempts
	ReconnectInterval = time.Second * 2
	queueHint         = 16
)

// Config names the peripheral the monitor looks for
type Config struct {
	Name        string
	ServiceUUID string
	CharUUID    string
}

// DefaultConfig returns the fixed telemetry service layout
func DefaultConfig() Config {
	return Config{
		Name:        util.DeviceName,
		ServiceUUID: util.TelemetryServiceUUID,
		CharUUID:    util.TelemetryCharUUID,
	}
}

// Monitor subscribes to a telemetry peripheral and hands parsed readings to its listener
type Monitor struct {
	config     Config
	status     models.MonitorStatus
	mutex      sync.Mutex
	addr       string
	connection telble.Connection
	listener   models.MonitorListener
	queue      *queue.Queue
	lost       chan struct{}
	now        func() time.Time
}

// NewMonitor opens the default device and returns a monitor looking for peripherals
// advertising config.Name or config.ServiceUUID
func NewMonitor(config Config, listener models.MonitorListener) (*Monitor, error) {
	m := newMonitor(config, listener)
	conn, err := telble.NewRealConnection(config.ServiceUUID, m)
	if err != nil {
		return nil, err
	}
	m.connection = conn
	return m, nil
}

func newMonitor(config Config, listener models.MonitorListener) *Monitor {
	return &Monitor{
		config: config, status: models.Disconnected, listener: listener,
		lost: make(chan struct{}, 1), now: time.Now,
	}
}

// Status returns whether the monitor is subscribed to a peripheral
func (m *Monitor) Status() models.MonitorStatus {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.status
}

// OnConnected is called by the connection once the telemetry service is discovered
func (m *Monitor) OnConnected(addr string, rssi int) {
	m.mutex.Lock()
	m.addr = addr
	m.mutex.Unlock()
	log.WithFields(log.Fields{"addr": addr, "rssi": rssi}).Info("Connected to peripheral")
	m.listener.OnConnected(addr, rssi)
}

// OnDisconnected drops queued readings, the consumer sees a clean slate on reconnect
func (m *Monitor) OnDisconnected() {
	m.mutex.Lock()
	m.status = models.Disconnected
	m.addr = ""
	q := m.queue
	m.queue = nil
	m.mutex.Unlock()
	if q != nil {
		q.Dispose()
	}
	log.Info("Disconnected from peripheral")
	m.listener.OnDisconnected()
	select {
	case m.lost <- struct{}{}:
	default:
	}
}

func (m *Monitor) handleNotification(b []byte) {
	sample, err := telemetry.Parse(string(b))
	if err != nil {
		m.listener.OnInternalError(err)
		return
	}
	m.mutex.Lock()
	q, addr := m.queue, m.addr
	m.mutex.Unlock()
	if q == nil {
		return
	}
	if err := q.Put(models.Reading{Sample: sample, Addr: addr, ReceivedAt: m.now()}); err != nil {
		log.WithError(err).Debug("Reading dropped")
	}
}

func (m *Monitor) consume(q *queue.Queue) {
	for {
		items, err := q.Get(1)
		if err != nil {
			return
		}
		for _, item := range items {
			m.listener.OnReading(item.(models.Reading))
		}
	}
}

func (m *Monitor) drainLost() {
	select {
	case <-m.lost:
	default:
	}
}

func (m *Monitor) filter() ble.AdvFilter {
	return telble.TelemetryFilter(m.config.Name, m.config.ServiceUUID)
}

func (m *Monitor) connectAndSubscribe(ctx context.Context) error {
	m.drainLost()
	err := m.connection.Connect(ctx, m.filter())
	if err != nil {
		return errors.Wrap(err, "Connect issue")
	}
	q := queue.New(queueHint)
	m.mutex.Lock()
	m.queue = q
	m.mutex.Unlock()
	go m.consume(q)
	if err := m.connection.Subscribe(m.config.CharUUID, m.handleNotification); err != nil {
		if dErr := m.connection.Disconnect(); dErr != nil {
			log.WithError(dErr).Warn("Disconnect issue")
		}
		return errors.Wrap(err, "Subscribe issue")
	}
	m.mutex.Lock()
	m.status = models.Connected
	m.mutex.Unlock()
	return nil
}

// Discover scans for telemetry peripherals during d, strongest signal first
func (m *Monitor) Discover(ctx context.Context, d time.Duration) ([]string, error) {
	return m.connection.Discover(ctx, d, m.filter())
}

// RssiMap returns the signal strength of every telemetry peripheral seen so far
func (m *Monitor) RssiMap() *models.RssiMap {
	return m.connection.GetRssiMap()
}

// ReadLatest reads the last value published by the connected peripheral
func (m *Monitor) ReadLatest() (models.Reading, error) {
	b, err := m.connection.ReadValue(m.config.CharUUID)
	if err != nil {
		return models.Reading{}, errors.Wrap(err, "ReadValue issue")
	}
	sample, err := telemetry.Parse(string(b))
	if err != nil {
		return models.Reading{}, err
	}
	return models.Reading{Sample: sample, Addr: m.connection.GetConnectedAddr(), ReceivedAt: m.now()}, nil
}

// Run keeps the monitor connected and subscribed until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	for {
		if err := m.connectAndSubscribe(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			m.listener.OnInternalError(err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(ReconnectInterval):
				continue
			}
		}
		select {
		case <-ctx.Done():
			if err := m.connection.Disconnect(); err != nil {
				log.WithError(err).Warn("Disconnect issue")
			}
			return
		case <-m.lost:
		}
	}
}
