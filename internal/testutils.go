package internal

import (
	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/util"
)

// DummyAdv is a fake advertisement report
type DummyAdv struct {
	Address    ble.Addr
	Name       string
	Rssi       int
	NonService bool
}

// DummyAddr is a fake bluetooth address
type DummyAddr struct {
	Address string
}

func (addr DummyAddr) String() string { return addr.Address }

func (a DummyAdv) LocalName() string              { return a.Name }
func (a DummyAdv) ManufacturerData() []byte       { return nil }
func (a DummyAdv) ServiceData() []ble.ServiceData { return nil }
func (a DummyAdv) Services() []ble.UUID {
	if a.NonService {
		return nil
	}
	return GetTestServiceUUIDs()
}
func (a DummyAdv) OverflowService() []ble.UUID  { return nil }
func (a DummyAdv) TxPowerLevel() int            { return 0 }
func (a DummyAdv) Connectable() bool            { return true }
func (a DummyAdv) SolicitedService() []ble.UUID { return nil }
func (a DummyAdv) RSSI() int                    { return a.Rssi }
func (a DummyAdv) Addr() ble.Addr               { return a.Address }

// NewDummyAdv returns an advertisement of the telemetry service from addr
func NewDummyAdv(addr string, rssi int) DummyAdv {
	return DummyAdv{Address: DummyAddr{addr}, Name: util.DeviceName, Rssi: rssi}
}

// GetTestServiceUUIDs returns the telemetry service uuid
func GetTestServiceUUIDs() []ble.UUID {
	return []ble.UUID{ble.MustParse(util.TelemetryServiceUUID)}
}

// GetTestServices returns the telemetry service holding the given characteristics
func GetTestServices(charUUIDs []string) []*ble.Service {
	chars := []*ble.Characteristic{}
	for _, uuid := range charUUIDs {
		c := ble.NewCharacteristic(ble.MustParse(uuid))
		c.Property = ble.CharRead | ble.CharWrite | ble.CharNotify
		c.CCCD = &ble.Descriptor{UUID: ble.ClientCharacteristicConfigUUID}
		chars = append(chars, c)
	}
	return []*ble.Service{{UUID: ble.MustParse(util.TelemetryServiceUUID), Characteristics: chars}}
}
