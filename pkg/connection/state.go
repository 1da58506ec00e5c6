package connection

import "time"

// State is an enum for the link state between the peripheral and a central
type State int

const (
	// Disconnected indicates no central is connected, telemetry is not published
	Disconnected State = iota
	// Connected indicates a central is connected, telemetry is published every tick
	Connected
)

func (s State) String() string {
	return []string{"Disconnected", "Connected"}[s]
}

// Event is emitted by the Tracker on every connection callback
type Event struct {
	State   State
	Addr    string
	Session string
	At      time.Time
}

// Listener is implemented by the application and registered with the transport,
// which invokes it from the ble stack's event context
type Listener interface {
	OnConnect(addr string)
	OnDisconnect(addr string)
}

// Advertiser re-arms advertising so new centrals can discover the peripheral
type Advertiser interface {
	StartAdvertising() error
}
