package ble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/ifeco/ble-telemetry/pkg/connection"
)

// SubscriptionTracksConnection is true on darwin: CoreBluetooth does not report centrals
// connecting, so notify subscriptions stand in for connections
const SubscriptionTracksConnection = true

func newDevice(_ connection.Listener) (ble.Device, error) {
	return darwin.NewDevice()
}
