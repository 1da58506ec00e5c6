package peripheral

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/go-ble/ble"
	telble "github.com/ifeco/ble-telemetry/pkg/ble"
	"github.com/ifeco/ble-telemetry/pkg/connection"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/telemetry"
	"github.com/ifeco/ble-telemetry/pkg/util"
	log "github.com/sirupsen/logrus"
)

// ConnectionState is the read side of the connection tracker consulted on every tick
type ConnectionState interface {
	Connected() bool
}

type transport interface {
	Serve(*ble.Service) error
	Close() error
}

// Config names the GATT surface of the server
type Config struct {
	ServiceUUID string
	CharUUID    string
	Interval    time.Duration
}

// DefaultConfig returns the fixed telemetry service layout
func DefaultConfig() Config {
	return Config{
		ServiceUUID: util.TelemetryServiceUUID,
		CharUUID:    util.TelemetryCharUUID,
		Interval:    util.PublishInterval,
	}
}

// TelemetryServer exposes the generator output on a read/write/notify characteristic
type TelemetryServer struct {
	config               Config
	state                ConnectionState
	generator            *telemetry.Generator
	subscribers          mapset.Set
	mutex                sync.RWMutex
	value                []byte
	status               models.PeripheralStatus
	listener             models.PeripheralListener
	subscriptionMutex    sync.Mutex
	subscriptionListener connection.Listener
}

type blankListener struct{}

func (blankListener) OnServerStatusChanged(models.PeripheralStatus, error) {}
func (blankListener) OnClientWrite(models.WriteRequest)                    {}
func (blankListener) OnInternalError(error)                                {}

// NewTelemetryServer builds a server publishing generator samples while tracker reports a
// connected central. listener may be nil.
func NewTelemetryServer(config Config, tracker *connection.Tracker, generator *telemetry.Generator, listener models.PeripheralListener) *TelemetryServer {
	server := newTelemetryServer(config, tracker, generator, listener)
	if telble.SubscriptionTracksConnection {
		server.subscriptionListener = tracker
	}
	return server
}

func newTelemetryServer(config Config, state ConnectionState, generator *telemetry.Generator, listener models.PeripheralListener) *TelemetryServer {
	if listener == nil {
		listener = blankListener{}
	}
	return &TelemetryServer{
		config: config, state: state, generator: generator,
		subscribers: mapset.NewSet(), value: []byte{},
		status: models.Stopped, listener: listener,
	}
}

// Service returns the GATT service holding the telemetry characteristic
func (server *TelemetryServer) Service() *ble.Service {
	service := ble.NewService(ble.MustParse(server.config.ServiceUUID))
	service.AddCharacteristic(newTelemetryChar(server, server.config.CharUUID))
	return service
}

// Value returns the last published characteristic value
func (server *TelemetryServer) Value() []byte {
	server.mutex.RLock()
	defer server.mutex.RUnlock()
	return server.value
}

// Status returns the lifecycle status of the server
func (server *TelemetryServer) Status() models.PeripheralStatus {
	server.mutex.RLock()
	defer server.mutex.RUnlock()
	return server.status
}

// Subscribers returns the number of centrals subscribed to notifications
func (server *TelemetryServer) Subscribers() int { return server.subscribers.Cardinality() }

func (server *TelemetryServer) setStatus(status models.PeripheralStatus, err error) {
	server.mutex.Lock()
	server.status = status
	server.mutex.Unlock()
	log.WithField("status", status).Info("Server status changed")
	server.listener.OnServerStatusChanged(status, err)
}

// Tick runs one publish cycle and reports whether a sample was published. Nothing happens,
// not even a generator step, while no central is connected.
func (server *TelemetryServer) Tick() bool {
	if !server.state.Connected() {
		return false
	}
	sample := server.generator.Next()
	value, err := telemetry.Format(sample)
	if err != nil {
		server.listener.OnInternalError(err)
		return false
	}
	server.publish([]byte(value))
	return true
}

func (server *TelemetryServer) publish(value []byte) {
	server.mutex.Lock()
	server.value = value
	server.mutex.Unlock()
	for _, s := range server.subscribers.ToSlice() {
		sub := s.(*subscriber)
		if _, err := sub.notifier.Write(value); err != nil {
			log.WithField("addr", sub.addr).WithError(err).Debug("Notify issue")
		}
	}
}

// Run serves the telemetry service on t and publishes until ctx is done, then closes t
func (server *TelemetryServer) Run(ctx context.Context, t transport) error {
	if err := t.Serve(server.Service()); err != nil {
		server.setStatus(models.Crashed, err)
		return err
	}
	server.setStatus(models.Running, nil)
	NewPublisher(server, server.config.Interval).Run(ctx)
	err := t.Close()
	server.setStatus(models.Stopped, err)
	return err
}
