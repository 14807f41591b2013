package ui

import (
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/calvinmclean/rangeguard/controller"

	"github.com/stretchr/testify/assert"
)

func TestConfigPreferences(t *testing.T) {
	cw := NewConfigWindow(test.NewApp())

	cfg := controller.Config{}
	cw.applyPreferences(&cfg)
	assert.Equal(t, controller.Config{}, cfg)

	cw.storePreferences(controller.Config{SerialPort: "/dev/ttyACM0", BaudRate: "9600"})

	cfg = controller.Config{BaudRate: "115200"}
	cw.applyPreferences(&cfg)
	assert.Equal(t, controller.Config{SerialPort: "/dev/ttyACM0", BaudRate: "115200"}, cfg)
}
