// internal/model/instrument.go
package model

// ConnectionType represents how the instrument is connected
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// InstrumentType identifies an instrument family
type InstrumentType string

const (
	InstrumentOverheadStirrer InstrumentType = "overhead"
	InstrumentHotplate        InstrumentType = "hotplate"
	InstrumentShaker          InstrumentType = "shaker"
	InstrumentVacuum          InstrumentType = "vacuum"
)

// InstrumentTypes lists the supported families in display order
func InstrumentTypes() []InstrumentType {
	return []InstrumentType{
		InstrumentOverheadStirrer,
		InstrumentHotplate,
		InstrumentShaker,
		InstrumentVacuum,
	}
}

// ParseInstrumentType validates a family name
func ParseInstrumentType(s string) (InstrumentType, bool) {
	for _, t := range InstrumentTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// InstrumentStatus represents the connection status reported by the service
type InstrumentStatus string

const (
	InstrumentStatusOnline     InstrumentStatus = "ONLINE"
	InstrumentStatusOffline    InstrumentStatus = "OFFLINE"
	InstrumentStatusConnecting InstrumentStatus = "CONNECTING"
	InstrumentStatusError      InstrumentStatus = "ERROR"
)
