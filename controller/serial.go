package controller

import (
	"errors"
	"fmt"

	"go.bug.st/serial/enumerator"
)

// SerialPortNone selects the simulated device instead of a serial port
const SerialPortNone = "none (simulated)"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts returns the names of USB serial ports
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, port := range ports {
		if port.IsUSB {
			result = append(result, port.Name)
		}
	}
	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}
