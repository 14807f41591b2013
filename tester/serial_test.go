package main_test

import (
	"bufio"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/calvinmclean/rangeguard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// openDevice opens the port in RANGEGUARD_SERIAL_PORT. Tests are skipped without a device
func openDevice(t *testing.T) serial.Port {
	t.Helper()

	portName := os.Getenv("RANGEGUARD_SERIAL_PORT")
	if portName == "" {
		t.Skip("RANGEGUARD_SERIAL_PORT is not set")
	}

	port, err := serial.Open(portName, &serial.Mode{BaudRate: 115200})
	require.NoError(t, err)
	t.Cleanup(func() { port.Close() })

	require.NoError(t, port.SetReadTimeout(100*time.Millisecond))
	require.NoError(t, port.ResetInputBuffer())

	return port
}

// waitForLine sends in and returns the first line that matches
func waitForLine(t *testing.T, port serial.Port, in string, match func(string) bool) string {
	t.Helper()

	_, err := port.Write([]byte(in))
	require.NoError(t, err)

	var line strings.Builder
	buf := make([]byte, 64)
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		n, err := port.Read(buf)
		require.NoError(t, err)

		line.Write(buf[:n])
		scanner := bufio.NewScanner(strings.NewReader(line.String()))
		for scanner.Scan() {
			text := strings.TrimRight(scanner.Text(), "\r")
			if match(text) {
				return text
			}
		}
	}

	t.Fatalf("no matching line after writing %q, got %q", in, line.String())
	return ""
}

func TestSerialStatus(t *testing.T) {
	port := openDevice(t)

	line := waitForLine(t, port, "", func(s string) bool {
		_, err := rangeguard.ParseStatus(s)
		return err == nil
	})

	status, err := rangeguard.ParseStatus(line)
	require.NoError(t, err)
	assert.Equal(t, rangeguard.CommandFor(status.State), status.Command)
}

func TestSerialCommands(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Debug", "D", "policy=hold-last"},
		{"SafeFar", "PF", "TimeoutPolicy safe-far"},
		{"DebugSafeFar", "D", "policy=safe-far"},
		{"HoldLast", "PH", "TimeoutPolicy hold-last"},
		{"InvalidPolicy", "PX", "error: invalid input: X"},
	}

	port := openDevice(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			waitForLine(t, port, tt.in, func(s string) bool {
				return strings.Contains(s, tt.expected)
			})
		})
	}
}
