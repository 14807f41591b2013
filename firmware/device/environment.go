//go:build tinygo

package device

import (
	"errors"
	"math"

	"tinygo.org/x/drivers/dht"
)

// Environment reads the DHT11. The driver caches a measurement for two seconds, so reading
// every loop iteration does not flood the sensor
type Environment struct {
	sensor dht.Device
}

func NewEnvironment(cfg EnvironmentConfig) *Environment {
	return &Environment{
		sensor: dht.New(cfg.Pin, dht.DHT11),
	}
}

func (e *Environment) Temperature() (float64, error) {
	t, err := e.sensor.TemperatureFloat(dht.C)
	if err != nil {
		return math.NaN(), errors.New("error reading temperature: " + err.Error())
	}
	return float64(t), nil
}

func (e *Environment) Humidity() (float64, error) {
	h, err := e.sensor.HumidityFloat()
	if err != nil {
		return math.NaN(), errors.New("error reading humidity: " + err.Error())
	}
	return float64(h), nil
}
