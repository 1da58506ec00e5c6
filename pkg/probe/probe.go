// Package probe reports which ble features the binary was built with.
//
// The two feature flags are build tags:
//
//	go build -tags "bt_enabled bluedroid_enabled" ./examples/probe
package probe

import (
	"context"
	"fmt"
	"io"
	"time"
)

const (
	btFlag        = "CONFIG_BT_ENABLED"
	bluedroidFlag = "CONFIG_BLUEDROID_ENABLED"
)

// Result is the outcome of the feature probe
type Result struct {
	BTEnabled          bool
	BluedroidEnabled   bool
	LibrariesAvailable bool
}

// Report returns the features compiled into this binary
func Report() Result {
	return newResult(btEnabled, bluedroidEnabled)
}

func newResult(bt, bluedroid bool) Result {
	return Result{BTEnabled: bt, BluedroidEnabled: bluedroid, LibrariesAvailable: bt && bluedroid}
}

// Print writes the report as plain text lines
func (r Result) Print(w io.Writer) error {
	lines := []string{
		"Checking BLE support...",
		flagLine(btFlag, r.BTEnabled),
		flagLine(bluedroidFlag, r.BluedroidEnabled),
		"Loading BLE libraries...",
	}
	if r.LibrariesAvailable {
		lines = append(lines, "BLE libraries loaded")
	} else {
		lines = append(lines, "BLE not available, rebuild with -tags \"bt_enabled bluedroid_enabled\"")
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func flagLine(flag string, set bool) string {
	if set {
		return flag + " defined"
	}
	return flag + " NOT defined"
}

// Heartbeat flips a state every interval and hands it to toggle until ctx is done
func Heartbeat(ctx context.Context, interval time.Duration, toggle func(on bool)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	on := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			on = !on
			toggle(on)
		}
	}
}
