package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rangeguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		expected Config
	}{
		{
			"Defaults",
			"",
			nil,
			Config{BaudRate: "115200"},
		},
		{
			"File",
			"serial_port: /dev/ttyACM0\nbaud_rate: \"9600\"\n",
			nil,
			Config{SerialPort: "/dev/ttyACM0", BaudRate: "9600"},
		},
		{
			"FileKeepsDefaultBaudRate",
			"serial_port: /dev/ttyACM0\n",
			nil,
			Config{SerialPort: "/dev/ttyACM0", BaudRate: "115200"},
		},
		{
			"EnvironmentOverridesFile",
			"serial_port: /dev/ttyACM0\nbaud_rate: \"9600\"\n",
			map[string]string{"SERIAL_PORT": "/dev/ttyUSB1", "BAUD_RATE": "57600"},
			Config{SerialPort: "/dev/ttyUSB1", BaudRate: "57600"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SERIAL_PORT", "")
			t.Setenv("BAUD_RATE", "")
			os.Unsetenv("SERIAL_PORT")
			os.Unsetenv("BAUD_RATE")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("SERIAL_PORT", "")
	t.Setenv("BAUD_RATE", "")
	os.Unsetenv("SERIAL_PORT")
	os.Unsetenv("BAUD_RATE")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Config{BaudRate: "115200"}, cfg)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "serial_port: [\n"))
	assert.ErrorContains(t, err, "error parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		err  string
	}{
		{"Valid", Config{SerialPort: "/dev/ttyACM0", BaudRate: "115200"}, ""},
		{"DefaultBaudRate", Config{SerialPort: "/dev/ttyACM0"}, ""},
		{"Simulated", Config{SerialPort: SerialPortNone, BaudRate: "bad"}, ""},
		{"MissingSerialPort", Config{BaudRate: "115200"}, "missing serial port"},
		{"InvalidBaudRate", Config{SerialPort: "/dev/ttyACM0", BaudRate: "abc"}, "invalid baud rate"},
		{"NegativeBaudRate", Config{SerialPort: "/dev/ttyACM0", BaudRate: "-1"}, "invalid baud rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.err)
		})
	}
}
