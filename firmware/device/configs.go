//go:build tinygo

package device

import (
	"machine"
	"time"

	"tinygo.org/x/drivers/servo"
)

// UltrasonicConfig has the HC-SR04 wiring
type UltrasonicConfig struct {
	Trigger machine.Pin
	Echo    machine.Pin
	// TriggerPulse defaults to 10µs
	TriggerPulse time.Duration
}

// EnvironmentConfig has the DHT11 data pin
type EnvironmentConfig struct {
	Pin machine.Pin
}

// DisplayConfig has the I2C wiring and geometry of the SSD1306. Zero SDA/SCL use the bus defaults
type DisplayConfig struct {
	Bus     *machine.I2C
	SDA     machine.Pin
	SCL     machine.Pin
	Address uint16
	Width   int16
	Height  int16
}

// ServoConfig has device-level values for setting up the Servo
type ServoConfig struct {
	Pin machine.Pin
	PWM servo.PWM
}

// Config has every peripheral of the device
type Config struct {
	Ultrasonic  UltrasonicConfig
	Environment EnvironmentConfig
	Display     DisplayConfig
	Servo       ServoConfig
}
