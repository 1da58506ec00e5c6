package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/models"
	"github.com/ifeco/ble-telemetry/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	maxRetryAttempts = 5
	connectTimeout   = 10 * time.Second
)

type connectionListener interface {
	OnConnected(string, int)
	OnDisconnected()
}

// Connection is the central side of a link to a telemetry peripheral
type Connection interface {
	GetConnectedAddr() string
	GetRssiMap() *models.RssiMap
	Discover(context.Context, time.Duration, ble.AdvFilter) ([]string, error)
	Connect(context.Context, ble.AdvFilter) error
	Subscribe(string, func([]byte)) error
	ReadValue(string) ([]byte, error)
	Disconnect() error
}

// RealConnection implements Connection on top of the default go-ble device
type RealConnection struct {
	serviceUUID     string
	connectedAddr   string
	rssiMap         *models.RssiMap
	cln             ble.Client
	methods         coreMethods
	characteristics map[string]*ble.Characteristic
	mutex           *sync.Mutex
	listener        connectionListener
}

// NewRealConnection opens the default device for central use. Connect only accepts
// peripherals exposing serviceUUID.
func NewRealConnection(serviceUUID string, listener connectionListener) (*RealConnection, error) {
	methods := &realCoreMethods{}
	if err := methods.SetDefaultDevice(nil); err != nil {
		return nil, errors.Wrap(err, "SetDefaultDevice issue")
	}
	return newRealConnection(serviceUUID, listener, methods), nil
}

func newRealConnection(serviceUUID string, listener connectionListener, methods coreMethods) *RealConnection {
	return &RealConnection{
		serviceUUID:     serviceUUID,
		rssiMap:         models.NewRssiMap(),
		methods:         methods,
		characteristics: map[string]*ble.Characteristic{},
		mutex:           &sync.Mutex{},
		listener:        listener,
	}
}

// TelemetryFilter matches advertisements of a peripheral by local name or service uuid
func TelemetryFilter(name string, serviceUUID string) ble.AdvFilter {
	return func(a ble.Advertisement) bool {
		if name != "" && a.LocalName() == name {
			return true
		}
		for _, s := range a.Services() {
			if util.UuidEqualStr(s, serviceUUID) {
				return true
			}
		}
		return false
	}
}

func (c *RealConnection) GetConnectedAddr() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connectedAddr
}

// GetRssiMap returns the last rssi seen per advertiser, across scans and connects
func (c *RealConnection) GetRssiMap() *models.RssiMap { return c.rssiMap }

// Discover scans during d for advertisers accepted by filter and returns their addresses,
// strongest first
func (c *RealConnection) Discover(ctx context.Context, d time.Duration, filter ble.AdvFilter) ([]string, error) {
	found := models.NewRssiMap()
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	err := c.methods.Scan(ctx, func(a ble.Advertisement) {
		found.Set(a.Addr().String(), a.RSSI())
	}, filter)
	c.rssiMap.Merge(found)
	if err != nil && errors.Cause(err) != context.DeadlineExceeded && errors.Cause(err) != context.Canceled {
		return nil, errors.Wrap(err, "Scan issue")
	}
	return found.Strongest(), nil
}

// Connect dials the first advertiser accepted by filter and discovers the telemetry service
func (c *RealConnection) Connect(ctx context.Context, filter ble.AdvFilter) error {
	cln, addr, rssi, err := c.connect(ctx, filter)
	if err != nil {
		return err
	}
	c.listener.OnConnected(addr, rssi)
	go c.watch(cln)
	return nil
}

func (c *RealConnection) connect(ctx context.Context, filter ble.AdvFilter) (ble.Client, string, int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	var connectedAddr string
	var rssi int
	err := retry("Connect", func() error {
		if c.cln != nil {
			c.connectedAddr = ""
			c.cln.CancelConnection()
			c.cln = nil
		}
		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		cln, err := c.methods.Connect(dialCtx, func(a ble.Advertisement) bool {
			c.rssiMap.Set(a.Addr().String(), a.RSSI())
			b := filter(a)
			if b {
				connectedAddr = a.Addr().String()
				rssi = a.RSSI()
			}
			return b
		})
		if err != nil {
			return errors.Wrap(err, "coreMethods Connect issue")
		}
		c.cln = cln
		if _, err := cln.ExchangeMTU(util.MTU); err != nil {
			log.WithError(err).Debug("ExchangeMTU issue")
		}
		p, err := cln.DiscoverProfile(true)
		if err != nil {
			return errors.Wrap(err, "DiscoverProfile issue")
		}
		for _, s := range p.Services {
			if util.UuidEqualStr(s.UUID, c.serviceUUID) {
				for _, char := range s.Characteristics {
					c.characteristics[char.UUID.String()] = char
				}
				c.connectedAddr = connectedAddr
				return nil
			}
		}
		return errors.Errorf("Could not find service %s in broadcasted services", c.serviceUUID)
	})
	if err != nil {
		if c.cln != nil {
			c.cln.CancelConnection()
			c.cln = nil
		}
		return nil, "", 0, err
	}
	return c.cln, connectedAddr, rssi, nil
}

func (c *RealConnection) watch(cln ble.Client) {
	<-cln.Disconnected()
	c.mutex.Lock()
	if c.cln == cln {
		c.connectedAddr = ""
	}
	c.mutex.Unlock()
	c.listener.OnDisconnected()
}

func (c *RealConnection) getCharacteristic(uuid string) (*ble.Characteristic, error) {
	if char, ok := c.characteristics[ble.MustParse(uuid).String()]; ok {
		return char, nil
	}
	return nil, fmt.Errorf("No such uuid (%s) in characteristics (%v) advertised from peripheral.", uuid, c.characteristics)
}

// Subscribe enables notifications of the characteristic uuid
func (c *RealConnection) Subscribe(uuid string, handler func([]byte)) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cln == nil {
		return errors.New("not connected")
	}
	char, err := c.getCharacteristic(uuid)
	if err != nil {
		return err
	}
	return util.CatchErrs(func() error {
		return errors.Wrap(c.cln.Subscribe(char, false, handler), "Subscribe issue")
	})
}

// ReadValue reads the current value of the characteristic uuid
func (c *RealConnection) ReadValue(uuid string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cln == nil {
		return nil, errors.New("not connected")
	}
	char, err := c.getCharacteristic(uuid)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = retry("ReadCharacteristic", func() error {
		d, e := c.cln.ReadCharacteristic(char)
		data = d
		return e
	})
	return data, err
}

// Disconnect drops subscriptions and the link
func (c *RealConnection) Disconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.cln == nil {
		return nil
	}
	cln := c.cln
	c.cln = nil
	c.connectedAddr = ""
	c.characteristics = map[string]*ble.Characteristic{}
	return util.CatchErrs(func() error {
		if err := cln.ClearSubscriptions(); err != nil {
			log.WithError(err).Debug("ClearSubscriptions issue")
		}
		return cln.CancelConnection()
	})
}
