package internal

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/util"
)

// DummyCoreClient is a fake ble.Client connected to a telemetry peripheral
type DummyCoreClient struct {
	TestAddr     string
	Services     []*ble.Service
	ReadCharData []byte

	mutex        sync.Mutex
	handlers     map[string]ble.NotificationHandler
	disconnected chan struct{}
	cancelled    bool
}

// NewDummyCoreClient returns a fake client exposing the telemetry characteristic
func NewDummyCoreClient(addr string) *DummyCoreClient {
	return &DummyCoreClient{
		TestAddr:     addr,
		Services:     GetTestServices([]string{util.TelemetryCharUUID}),
		handlers:     map[string]ble.NotificationHandler{},
		disconnected: make(chan struct{}),
	}
}

// Notify delivers value to the handler subscribed to uuid, reporting whether one was
func (c *DummyCoreClient) Notify(uuid string, value []byte) bool {
	c.mutex.Lock()
	h, ok := c.handlers[ble.MustParse(uuid).String()]
	c.mutex.Unlock()
	if ok {
		h(value)
	}
	return ok
}

// Drop simulates the peripheral going away
func (c *DummyCoreClient) Drop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	select {
	case <-c.disconnected:
	default:
		close(c.disconnected)
	}
}

// Cancelled reports whether CancelConnection was called
func (c *DummyCoreClient) Cancelled() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.cancelled
}

func (c *DummyCoreClient) ReadCharacteristic(char *ble.Characteristic) ([]byte, error) {
	return c.ReadCharData, nil
}
func (c *DummyCoreClient) WriteCharacteristic(char *ble.Characteristic, value []byte, noRsp bool) error {
	return nil
}
func (c *DummyCoreClient) Addr() ble.Addr        { return ble.NewAddr(c.TestAddr) }
func (c *DummyCoreClient) Name() string          { return util.DeviceName }
func (c *DummyCoreClient) Profile() *ble.Profile { return &ble.Profile{Services: c.Services} }
func (c *DummyCoreClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	return &ble.Profile{Services: c.Services}, nil
}
func (c *DummyCoreClient) DiscoverServices(filter []ble.UUID) ([]*ble.Service, error) {
	return c.Services, nil
}
func (c *DummyCoreClient) DiscoverIncludedServices(filter []ble.UUID, s *ble.Service) ([]*ble.Service, error) {
	return nil, nil
}
func (c *DummyCoreClient) DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error) {
	return s.Characteristics, nil
}
func (c *DummyCoreClient) DiscoverDescriptors(filter []ble.UUID, char *ble.Characteristic) ([]*ble.Descriptor, error) {
	return nil, nil
}
func (c *DummyCoreClient) ReadLongCharacteristic(char *ble.Characteristic) ([]byte, error) {
	return c.ReadCharacteristic(char)
}
func (c *DummyCoreClient) ReadDescriptor(d *ble.Descriptor) ([]byte, error)  { return nil, nil }
func (c *DummyCoreClient) WriteDescriptor(d *ble.Descriptor, v []byte) error { return nil }
func (c *DummyCoreClient) ReadRSSI() int                                     { return -60 }
func (c *DummyCoreClient) ExchangeMTU(rxMTU int) (txMTU int, err error)      { return util.MTU, nil }
func (c *DummyCoreClient) Subscribe(char *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	c.mutex.Lock()
	c.handlers[char.UUID.String()] = h
	c.mutex.Unlock()
	return nil
}
func (c *DummyCoreClient) Unsubscribe(char *ble.Characteristic, ind bool) error {
	c.mutex.Lock()
	delete(c.handlers, char.UUID.String())
	c.mutex.Unlock()
	return nil
}
func (c *DummyCoreClient) ClearSubscriptions() error {
	c.mutex.Lock()
	c.handlers = map[string]ble.NotificationHandler{}
	c.mutex.Unlock()
	return nil
}
func (c *DummyCoreClient) CancelConnection() error {
	c.mutex.Lock()
	c.cancelled = true
	c.mutex.Unlock()
	c.Drop()
	return nil
}
func (c *DummyCoreClient) Disconnected() <-chan struct{} { return c.disconnected }
func (c *DummyCoreClient) Conn() ble.Conn {
	return &DummyConn{Ctx: context.Background(), Addr: c.TestAddr}
}

// DummyConn is a fake ble.Conn
type DummyConn struct {
	Ctx  context.Context
	Addr string
}

func (c *DummyConn) Context() context.Context          { return c.Ctx }
func (c *DummyConn) SetContext(ctx context.Context)    { c.Ctx = ctx }
func (c *DummyConn) LocalAddr() ble.Addr               { return ble.NewAddr(c.Addr) }
func (c *DummyConn) RemoteAddr() ble.Addr              { return ble.NewAddr(c.Addr) }
func (c *DummyConn) RxMTU() int                        { return util.MTU }
func (c *DummyConn) SetRxMTU(mtu int)                  {}
func (c *DummyConn) TxMTU() int                        { return util.MTU }
func (c *DummyConn) SetTxMTU(mtu int)                  {}
func (c *DummyConn) Disconnected() <-chan struct{}     { return make(chan struct{}) }
func (c *DummyConn) Read(p []byte) (n int, err error)  { return 0, nil }
func (c *DummyConn) Write(p []byte) (n int, err error) { return 0, nil }
func (c *DummyConn) Close() error                      { return nil }
