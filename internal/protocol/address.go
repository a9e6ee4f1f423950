// internal/protocol/address.go
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"namur-service/internal/model"
)

// ErrInvalidAddress is returned for addresses that are neither a device path
// nor a host:port pair
var ErrInvalidAddress = errors.New("address must be host:port")

// Address identifies an instrument endpoint
type Address struct {
	Type model.ConnectionType `json:"type"`
	Host string               `json:"host,omitempty"`
	Port int                  `json:"port,omitempty"`
	Path string               `json:"path,omitempty"`
}

// ParseAddress accepts a serial device path (/dev/..., COMn) or a TCP host:port
func ParseAddress(address string) (Address, error) {
	address = strings.TrimSpace(address)

	if IsSerialPath(address) {
		return Address{Type: model.ConnectionTypeSerial, Path: address}, nil
	}

	if strings.Count(address, ":") != 1 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	host, portStr, _ := strings.Cut(address, ":")
	if host == "" {
		return Address{}, fmt.Errorf("%w: %q has no host", ErrInvalidAddress, address)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q has a non-numeric port", ErrInvalidAddress, address)
	}
	if port < 1 || port > 65535 {
		return Address{}, fmt.Errorf("%w: port %d out of range", ErrInvalidAddress, port)
	}

	return Address{Type: model.ConnectionTypeTCP, Host: host, Port: port}, nil
}

// IsSerialPath reports whether address names a local serial device
func IsSerialPath(address string) bool {
	return strings.HasPrefix(address, "/dev") || strings.HasPrefix(address, "COM")
}

func (a Address) String() string {
	if a.Type == model.ConnectionTypeSerial {
		return a.Path
	}
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
