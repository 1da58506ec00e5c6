package models

// PeripheralStatus is an enum for all possible status conditions for the telemetry peripheral
type PeripheralStatus int

const (
	// Running indicates the peripheral is advertising and publishing
	Running PeripheralStatus = iota
	// Stopped indicates the publish loop returned, normally after its context ended
	Stopped
	// Crashed indicates the peripheral is not running and has returned error in execution
	Crashed
)

func (s PeripheralStatus) String() string {
	return []string{"Running", "Stopped", "Crashed"}[s]
}

// MonitorStatus is an enum for all possible status conditions for the telemetry monitor
type MonitorStatus int

const (
	// Disconnected indicates the monitor has no peripheral connection
	Disconnected MonitorStatus = iota
	// Connected indicates the monitor is subscribed to a peripheral
	Connected
)

func (s MonitorStatus) String() string {
	return []string{"Disconnected", "Connected"}[s]
}
