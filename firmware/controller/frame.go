package controller

import (
	"strconv"

	"github.com/calvinmclean/rangeguard"
)

// Frame returns the display rows for one iteration. command is the servo position last applied,
// which lags state when a servo write failed. Invalid readings are shown as rangeguard.Placeholder
func Frame(distance rangeguard.DistanceSample, env rangeguard.EnvironmentSample, state rangeguard.ProximityState, command rangeguard.ServoCommand) []string {
	dist := rangeguard.Placeholder
	if distance.Valid {
		dist = rangeguard.FormatReading(distance.CM)
	}
	temp := rangeguard.Placeholder
	if env.TemperatureValid() {
		temp = rangeguard.FormatReading(env.TemperatureC)
	}
	hum := rangeguard.Placeholder
	if env.HumidityValid() {
		hum = rangeguard.FormatReading(env.Humidity)
	}

	return []string{
		"Dist: " + dist + " cm",
		"Temp: " + temp + " C",
		"Hum:  " + hum + " %",
		"State: " + state.String(),
		"Servo: " + strconv.Itoa(command.Angle()),
	}
}
