package ble

import (
	"context"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/connection"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const stopTimeout = 5 * time.Second

var errClosed = errors.New("peripheral is closed")

// Peripheral registers the GATT service on the default device and keeps it advertised
type Peripheral struct {
	name    string
	uuids   []ble.UUID
	methods coreMethods
	mutex   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
}

// NewPeripheral opens the default device. listener receives connect and disconnect
// events of centrals where the platform reports them (see SubscriptionTracksConnection).
func NewPeripheral(name string, listener connection.Listener) (*Peripheral, error) {
	methods := &realCoreMethods{}
	if err := methods.SetDefaultDevice(listener); err != nil {
		return nil, errors.Wrap(err, "SetDefaultDevice issue")
	}
	return newPeripheral(name, methods), nil
}

func newPeripheral(name string, methods coreMethods) *Peripheral {
	return &Peripheral{name: name, methods: methods}
}

// Serve adds service to the device and starts advertising its uuid with the device name
func (p *Peripheral) Serve(service *ble.Service) error {
	if err := p.methods.AddService(service); err != nil {
		return errors.Wrap(err, "AddService issue")
	}
	p.mutex.Lock()
	p.uuids = []ble.UUID{service.UUID}
	p.mutex.Unlock()
	return p.StartAdvertising()
}

// StartAdvertising replaces the running advertisement with a new one. It does not block:
// the new advertisement starts once the previous one has been torn down.
func (p *Peripheral) StartAdvertising() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return errClosed
	}
	if p.cancel != nil {
		p.cancel()
	}
	prev := p.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	name, uuids := p.name, p.uuids
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		log.WithField("name", name).Info("Advertising")
		err := p.methods.AdvertiseNameAndServices(ctx, name, uuids...)
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("AdvertiseNameAndServices issue")
		}
	}()
	return nil
}

// Close stops advertising and the device
func (p *Peripheral) Close() error {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil
	}
	p.closed = true
	cancel, done := p.cancel, p.done
	p.mutex.Unlock()

	if cancel != nil {
		cancel()
		err := util.Timeout(func() error {
			<-done
			return nil
		}, stopTimeout)
		if err != nil {
			log.WithError(err).Warn("Advertising did not stop")
		}
	}
	return errors.Wrap(util.Timeout(p.methods.Stop, stopTimeout), "Stop issue")
}
