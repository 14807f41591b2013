package rangeguard

import (
	"errors"
	"math"
	"time"
)

const (
	// DefaultThresholdCM is the distance at or below which an object is NEAR
	DefaultThresholdCM = 15.0

	// SpeedOfSoundCMPerMicrosecond is the speed of sound at roughly 20°C
	SpeedOfSoundCMPerMicrosecond = 0.0343
)

var (
	// ErrSensorTimeout is returned when a sensor does not answer in time. It is never fatal
	ErrSensorTimeout = errors.New("sensor timeout")

	// ErrDisplayInit is returned when the status display cannot be initialized at boot
	ErrDisplayInit = errors.New("display initialization failed")
)

// ProximityState is the binary classification of the measured distance
type ProximityState int

const (
	ProximityFar ProximityState = iota
	ProximityNear
)

func (ps ProximityState) String() string {
	switch ps {
	case ProximityNear:
		return "NEAR"
	default:
		fallthrough
	case ProximityFar:
		return "FAR"
	}
}

// ServoCommand is the servo angle, in degrees, for a ProximityState
type ServoCommand int

const (
	ServoFar  ServoCommand = 0
	ServoNear ServoCommand = 180
)

// CommandFor maps a ProximityState to its ServoCommand: FAR -> 0, NEAR -> 180
func CommandFor(ps ProximityState) ServoCommand {
	if ps == ProximityNear {
		return ServoNear
	}
	return ServoFar
}

// Angle returns the command as the int expected by servo drivers
func (sc ServoCommand) Angle() int {
	return int(sc)
}

// DistanceSample is a single distance reading. A sample with Valid == false came
// from a timed out echo and CM carries no meaning
type DistanceSample struct {
	CM    float64
	Valid bool
}

// InvalidDistance is the sample used when no echo returned
var InvalidDistance = DistanceSample{CM: -1, Valid: false}

// DistanceFromEcho converts a round-trip echo time to centimeters
func DistanceFromEcho(elapsed time.Duration) float64 {
	us := float64(elapsed) / float64(time.Microsecond)
	return us * SpeedOfSoundCMPerMicrosecond / 2
}

// NewDistanceSample creates a valid sample from a round-trip echo time
func NewDistanceSample(elapsed time.Duration) DistanceSample {
	if elapsed < 0 {
		return InvalidDistance
	}
	return DistanceSample{CM: DistanceFromEcho(elapsed), Valid: true}
}

// Classify returns NEAR iff the sample is valid and at or below thresholdCM.
// Invalid samples are FAR
func Classify(sample DistanceSample, thresholdCM float64) ProximityState {
	if sample.Valid && sample.CM <= thresholdCM {
		return ProximityNear
	}
	return ProximityFar
}

// EnvironmentSample holds temperature (°C) and relative humidity (%). Each value
// is NaN when its read failed
type EnvironmentSample struct {
	TemperatureC float64
	Humidity     float64
}

// InvalidEnvironment is a sample where both reads failed
var InvalidEnvironment = EnvironmentSample{TemperatureC: math.NaN(), Humidity: math.NaN()}

func (e EnvironmentSample) TemperatureValid() bool {
	return !math.IsNaN(e.TemperatureC) && !math.IsInf(e.TemperatureC, 0)
}

func (e EnvironmentSample) HumidityValid() bool {
	return !math.IsNaN(e.Humidity) && !math.IsInf(e.Humidity, 0)
}

// TimeoutPolicy decides the ProximityState used when a distance read times out
type TimeoutPolicy int

const (
	// PolicyHoldLast keeps the last state derived from a valid sample so a flaky
	// echo does not move the servo
	PolicyHoldLast TimeoutPolicy = iota
	// PolicySafeFar falls back to FAR on every timeout
	PolicySafeFar
)

func (tp TimeoutPolicy) String() string {
	switch tp {
	case PolicySafeFar:
		return "safe-far"
	default:
		fallthrough
	case PolicyHoldLast:
		return "hold-last"
	}
}
