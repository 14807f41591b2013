//go:build tinygo

package device

import (
	"machine"
	"time"

	"github.com/calvinmclean/rangeguard"
)

const defaultTriggerPulse = 10 * time.Microsecond

// Ultrasonic times HC-SR04 echo pulses by polling the echo pin
type Ultrasonic struct {
	trigger      machine.Pin
	echo         machine.Pin
	triggerPulse time.Duration
}

func NewUltrasonic(cfg UltrasonicConfig) *Ultrasonic {
	if cfg.TriggerPulse == 0 {
		cfg.TriggerPulse = defaultTriggerPulse
	}

	u := &Ultrasonic{
		trigger:      cfg.Trigger,
		echo:         cfg.Echo,
		triggerPulse: cfg.TriggerPulse,
	}
	u.trigger.Configure(machine.PinConfig{Mode: machine.PinOutput})
	u.echo.Configure(machine.PinConfig{Mode: machine.PinInput})
	u.trigger.Low()

	return u
}

// EchoTime sends a trigger pulse and returns the width of the echo pulse. Both the wait for
// the echo to start and the echo itself are bounded by timeout
func (u *Ultrasonic) EchoTime(timeout time.Duration) (time.Duration, error) {
	u.trigger.Low()
	time.Sleep(2 * time.Microsecond)
	u.trigger.High()
	time.Sleep(u.triggerPulse)
	u.trigger.Low()

	deadline := time.Now().Add(timeout)
	for !u.echo.Get() {
		if time.Now().After(deadline) {
			return 0, rangeguard.ErrSensorTimeout
		}
	}

	start := time.Now()
	for u.echo.Get() {
		if time.Since(start) > timeout {
			return 0, rangeguard.ErrSensorTimeout
		}
	}

	return time.Since(start), nil
}
