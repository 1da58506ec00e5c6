package util

import "time"

const (
	// DeviceName is the local name advertised by the telemetry peripheral
	DeviceName = "IFECO_TELEMETRIA"
	// TelemetryServiceUUID represents UUID for the ble service holding the telemetry characteristic
	TelemetryServiceUUID = "0000FFE0-0000-1000-8000-00805F9B34FB"
	// TelemetryCharUUID represents UUID for the read/write/notify characteristic carrying telemetry samples
	TelemetryCharUUID = "0000FFE1-0000-1000-8000-00805F9B34FB"
	// MTU is used for the max size of bytes requested when exchanging MTU with a peripheral
	MTU = 256
	// ValueBufferSize is the declared size of the telemetry characteristic value
	ValueBufferSize = 32
	// PublishInterval is the period between two telemetry publish cycles
	PublishInterval = 500 * time.Millisecond
)
