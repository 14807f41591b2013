package rangeguard

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// StatusPrefix starts every status line printed by the firmware
	StatusPrefix = "STATUS"

	// Placeholder is printed in place of an invalid reading
	Placeholder = "--"
)

// ErrNotStatus is returned by ParseStatus for console lines that are not status lines
var ErrNotStatus = errors.New("not a status line")

// Status is the result of one loop iteration. It is printed on the serial console
// so the host can mirror the display
type Status struct {
	Distance    DistanceSample
	Environment EnvironmentSample
	State       ProximityState
	Command     ServoCommand
}

// String formats the Status like: STATUS d=10.0 t=25.0 h=40.0 p=NEAR a=180
func (s Status) String() string {
	temp := Placeholder
	if s.Environment.TemperatureValid() {
		temp = FormatReading(s.Environment.TemperatureC)
	}
	hum := Placeholder
	if s.Environment.HumidityValid() {
		hum = FormatReading(s.Environment.Humidity)
	}
	dist := Placeholder
	if s.Distance.Valid {
		dist = FormatReading(s.Distance.CM)
	}

	return StatusPrefix +
		" d=" + dist +
		" t=" + temp +
		" h=" + hum +
		" p=" + s.State.String() +
		" a=" + strconv.Itoa(s.Command.Angle())
}

// FormatReading formats a reading with one decimal
func FormatReading(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ParseStatus parses a line created by Status.String. Surrounding whitespace,
// including the "\r\n" used on the serial console, is ignored
func ParseStatus(line string) (Status, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != StatusPrefix {
		return Status{}, ErrNotStatus
	}

	s := Status{
		Distance:    InvalidDistance,
		Environment: InvalidEnvironment,
	}
	seen := map[string]bool{}
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Status{}, errors.New("invalid status field: " + field)
		}

		switch key {
		case "d":
			v, valid, err := parseReading(value)
			if err != nil {
				return Status{}, errors.New("invalid distance: " + err.Error())
			}
			if valid && v < 0 {
				return Status{}, errors.New("negative distance: " + value)
			}
			s.Distance = DistanceSample{CM: v, Valid: valid}
			if !valid {
				s.Distance = InvalidDistance
			}
		case "t":
			v, _, err := parseReading(value)
			if err != nil {
				return Status{}, errors.New("invalid temperature: " + err.Error())
			}
			s.Environment.TemperatureC = v
		case "h":
			v, _, err := parseReading(value)
			if err != nil {
				return Status{}, errors.New("invalid humidity: " + err.Error())
			}
			s.Environment.Humidity = v
		case "p":
			switch value {
			case ProximityNear.String():
				s.State = ProximityNear
			case ProximityFar.String():
				s.State = ProximityFar
			default:
				return Status{}, errors.New("invalid proximity state: " + value)
			}
		case "a":
			angle, err := strconv.Atoi(value)
			if err != nil {
				return Status{}, errors.New("invalid angle: " + err.Error())
			}
			if angle < 0 || angle > 180 {
				return Status{}, errors.New("angle out of range: " + value)
			}
			s.Command = ServoCommand(angle)
		default:
			return Status{}, errors.New("unknown status field: " + key)
		}
		seen[key] = true
	}

	for _, key := range []string{"d", "t", "h", "p", "a"} {
		if !seen[key] {
			return Status{}, errors.New("missing status field: " + key)
		}
	}

	return s, nil
}

// parseReading returns NaN and valid == false for the placeholder. Invalid readings are only
// ever sent as the placeholder, so NaN and Inf values are rejected
func parseReading(value string) (float64, bool, error) {
	if value == Placeholder {
		return math.NaN(), false, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, errors.New("reading is not finite: " + value)
	}
	return v, true, nil
}
