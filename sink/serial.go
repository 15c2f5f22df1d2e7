package sink

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialConfig selects a UART for output
type SerialConfig struct {
	Port string `yaml:"port" json:"port"` // e.g. /dev/ttyUSB0, COM1
	Baud int    `yaml:"baud" json:"baud"`
}

// OpenSerial opens the port at the configured baud rate, 8N1
func OpenSerial(cfg SerialConfig) (*Writer, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial: %w", ErrNoDestination)
	}
	if cfg.Baud <= 0 {
		return nil, ErrInvalidBaudRate
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	return &Writer{w: port, c: port}, nil
}

// SerialPorts lists the serial ports present on the system
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
