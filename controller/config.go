package controller

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const defaultBaudRate = "115200"

// Config has the values for connecting to the device
type Config struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   string `yaml:"baud_rate"`
}

// LoadConfig reads an optional YAML file and then applies SERIAL_PORT and BAUD_RATE from the
// environment. A missing file is not an error
func LoadConfig(path string) (Config, error) {
	cfg := Config{BaudRate: defaultBaudRate}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("error reading config: %w", err)
		default:
			err = yaml.Unmarshal(data, &cfg)
			if err != nil {
				return Config{}, fmt.Errorf("error parsing config: %w", err)
			}
		}
	}

	if v, ok := os.LookupEnv("SERIAL_PORT"); ok {
		cfg.SerialPort = v
	}
	if v, ok := os.LookupEnv("BAUD_RATE"); ok {
		cfg.BaudRate = v
	}

	return cfg, nil
}

// Validate checks that the Config can be used to connect
func (cfg Config) Validate() error {
	if cfg.SerialPort == "" {
		return errors.New("missing serial port")
	}
	if cfg.SerialPort == SerialPortNone {
		return nil
	}
	_, err := cfg.baudRate()
	return err
}

func (cfg Config) baudRate() (int, error) {
	if cfg.BaudRate == "" {
		cfg.BaudRate = defaultBaudRate
	}
	baud, err := strconv.Atoi(cfg.BaudRate)
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("invalid baud rate: %q", cfg.BaudRate)
	}
	return baud, nil
}
