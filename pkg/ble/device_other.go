//go:build !linux && !darwin
// +build !linux,!darwin

package ble

import (
	"runtime"

	"github.com/go-ble/ble"
	"github.com/ifeco/ble-telemetry/pkg/connection"
	"github.com/pkg/errors"
)

// SubscriptionTracksConnection has no effect where no device can be opened
const SubscriptionTracksConnection = true

func newDevice(_ connection.Listener) (ble.Device, error) {
	return nil, errors.Errorf("no ble device support on %s", runtime.GOOS)
}
