package ui

import (
	"image/color"
	"strconv"

	"github.com/calvinmclean/rangeguard"
)

var (
	colorWaiting = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorNear    = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	colorFar     = color.RGBA{R: 0, G: 100, B: 0, A: 255}
)

// indicator is the text and color of the proximity banner
type indicator struct {
	text  string
	color color.Color
}

func indicatorFor(status rangeguard.Status, ok bool) indicator {
	if !ok {
		return indicator{"Waiting for device", colorWaiting}
	}

	ind := indicator{status.State.String(), colorFar}
	if status.State == rangeguard.ProximityNear {
		ind.color = colorNear
	}
	if !status.Distance.Valid {
		ind.text += " (no echo)"
	}

	return ind
}

// readingText formats a reading with its unit, or the placeholder when it is invalid
func readingText(valid bool, v float64, unit string) string {
	if !valid {
		return rangeguard.Placeholder
	}
	return rangeguard.FormatReading(v) + " " + unit
}

// readings returns the label values for distance, temperature, humidity, and servo angle
func readings(status rangeguard.Status) [4]string {
	return [4]string{
		readingText(status.Distance.Valid, status.Distance.CM, "cm"),
		readingText(status.Environment.TemperatureValid(), status.Environment.TemperatureC, "°C"),
		readingText(status.Environment.HumidityValid(), status.Environment.Humidity, "%"),
		strconv.Itoa(status.Command.Angle()) + "°",
	}
}
