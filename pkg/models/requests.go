package models

import (
	"fmt"
	"time"

	"github.com/ifeco/ble-telemetry/pkg/telemetry"
)

// WriteRequest is the payload a client wrote to the telemetry characteristic
type WriteRequest struct {
	Addr string
	Data []byte
}

func (r WriteRequest) String() string {
	return fmt.Sprintf("%s wrote %q", r.Addr, r.Data)
}

// Reading is a telemetry sample received by a monitor
type Reading struct {
	Sample     telemetry.Sample
	Addr       string
	ReceivedAt time.Time
}
