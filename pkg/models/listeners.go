package models

// PeripheralListener receives lifecycle and client activity of the telemetry peripheral
type PeripheralListener interface {
	OnServerStatusChanged(PeripheralStatus, error)
	OnClientWrite(WriteRequest)
	OnInternalError(error)
}

// MonitorListener receives the telemetry stream consumed from a peripheral
type MonitorListener interface {
	OnConnected(addr string, rssi int)
	OnDisconnected()
	OnReading(Reading)
	OnInternalError(error)
}
