package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/rangeguard/controller"
)

const (
	prefSerialPort = "serialPort"
	prefBaudRate   = "baudRate"
)

// ConfigWindow asks for the serial connection before the monitor starts. Choices are
// remembered in the app preferences
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

// applyPreferences fills empty fields from previous runs
func (cw *ConfigWindow) applyPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	if cfg.SerialPort == "" {
		cfg.SerialPort = prefs.String(prefSerialPort)
	}
	if cfg.BaudRate == "" {
		cfg.BaudRate = prefs.String(prefBaudRate)
	}
}

func (cw *ConfigWindow) storePreferences(cfg controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString(prefSerialPort, cfg.SerialPort)
	prefs.SetString(prefBaudRate, cfg.BaudRate)
}

// portOptions lists the USB serial ports followed by the simulated device
func portOptions() ([]string, error) {
	ports, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		return nil, fmt.Errorf("error getting serial ports: %w", err)
	}
	return append(ports, controller.SerialPortNone), nil
}

// Show opens the window. cfg is updated in place before OnSubmit is called
func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("Range Guard - Configuration")
	window.Resize(fyne.NewSize(400, 180))
	window.SetCloseIntercept(func() {
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	options, err := portOptions()
	if err != nil {
		ShowError(cw.app, window, err)
		return
	}

	cw.applyPreferences(cfg)
	if cfg.SerialPort == "" {
		cfg.SerialPort = options[0]
	}

	portSelect := widget.NewSelect(options, func(port string) {
		cfg.SerialPort = port
	})
	portSelect.SetSelected(cfg.SerialPort)

	baudEntry := widget.NewEntry()
	baudEntry.SetText(cfg.BaudRate)
	baudEntry.Validator = func(baud string) error {
		return controller.Config{SerialPort: cfg.SerialPort, BaudRate: baud}.Validate()
	}
	baudEntry.OnChanged = func(baud string) {
		cfg.BaudRate = baud
	}

	form := widget.NewForm(
		widget.NewFormItem("Serial Port", portSelect),
		widget.NewFormItem("Baud Rate", baudEntry),
	)
	form.SubmitText = "Connect"
	form.OnSubmit = func() {
		err := cfg.Validate()
		if err != nil {
			dialog.ShowError(err, window)
			return
		}
		cw.storePreferences(*cfg)
		window.Hide()
		cw.OnSubmit()
		window.Close()
	}
	form.OnCancel = func() {
		window.Close()
		cw.app.Quit()
	}

	window.SetContent(widget.NewCard("Connection", "", form))
}

// ShowError shows err in a dialog and quits once it is closed
func ShowError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
