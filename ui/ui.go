package ui

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/rangeguard"
	"github.com/calvinmclean/rangeguard/controller"
)

const maxLogLines = 200

// MonitorUI mirrors the device display and shows its console output. It is a controller.StatusSink
// for readings and an io.Writer for console lines
type MonitorUI struct {
	app        fyne.App
	controller *controllerWrapper

	lastUpdate *sinceText

	banner     *canvas.Rectangle
	stateText  *canvas.Text
	valueLabel [4]*widget.Label

	logContent *widget.Label
	logScroll  *container.Scroll

	mtx      sync.Mutex
	logLines []string
}

var (
	_ controller.StatusSink = &MonitorUI{}
	_ io.Writer             = &MonitorUI{}
)

// NewMonitorUI creates the monitor. Commands from the buttons are written to commands
func NewMonitorUI(app fyne.App, commands io.Writer) *MonitorUI {
	ind := indicatorFor(rangeguard.Status{}, false)

	ui := &MonitorUI{
		app:        app,
		controller: &controllerWrapper{writer: commands},
		lastUpdate: newSinceText(),
		banner:     canvas.NewRectangle(ind.color),
		stateText:  canvas.NewText(ind.text, nil),
		logContent: widget.NewLabel(""),
	}
	ui.logScroll = container.NewVScroll(ui.logContent)
	for i := range ui.valueLabel {
		ui.valueLabel[i] = widget.NewLabel(rangeguard.Placeholder)
	}
	ui.stateText.TextSize = 24
	ui.stateText.TextStyle = fyne.TextStyle{Bold: true}
	ui.stateText.Alignment = fyne.TextAlignCenter

	return ui
}

// Record implements controller.StatusSink.
func (ui *MonitorUI) Record(_ context.Context, status rangeguard.Status) error {
	ui.lastUpdate.Mark(time.Now())

	ind := indicatorFor(status, true)
	values := readings(status)

	fyne.Do(func() {
		ui.banner.FillColor = ind.color
		ui.banner.Refresh()
		ui.stateText.Text = ind.text
		ui.stateText.Refresh()
		for i, v := range values {
			ui.valueLabel[i].SetText(v)
		}
	})

	return nil
}

// Write appends console output to the log
func (ui *MonitorUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\r\n"), "\n") {
		ui.logLines = append(ui.logLines, strings.TrimRight(line, "\r"))
	}
	if len(ui.logLines) > maxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-maxLogLines:]
	}
	text := strings.Join(ui.logLines, "\n")
	ui.mtx.Unlock()

	fyne.Do(func() {
		ui.logContent.SetText(text)
		ui.logScroll.ScrollToBottom()
	})

	return len(p), nil
}

// Show opens the monitor window. It is closed and the app quits when ctx is done
func (ui *MonitorUI) Show(ctx context.Context) {
	window := ui.app.NewWindow("Range Guard")

	ui.lastUpdate.Start()

	names := [4]string{"Distance", "Temperature", "Humidity", "Servo"}
	readingsGrid := container.NewGridWithColumns(2)
	for i, name := range names {
		readingsGrid.Add(widget.NewLabel(name + ":"))
		readingsGrid.Add(ui.valueLabel[i])
	}

	policySelect := widget.NewSelect(
		[]string{rangeguard.PolicyHoldLast.String(), rangeguard.PolicySafeFar.String()},
		func(s string) {
			p := rangeguard.PolicyHoldLast
			if s == rangeguard.PolicySafeFar.String() {
				p = rangeguard.PolicySafeFar
			}
			ui.sendCommand(func() error { return ui.controller.SetTimeoutPolicy(p) })
		},
	)
	policySelect.PlaceHolder = "Timeout policy"

	buttons := container.NewHBox(
		widget.NewButton("Debug", func() { ui.sendCommand(ui.controller.Debug) }),
		widget.NewButton("Sweep", func() { ui.sendCommand(ui.controller.Sweep) }),
		widget.NewButton("Verbose", func() { ui.sendCommand(ui.controller.Verbose) }),
		layout.NewSpacer(),
		policySelect,
	)

	ui.logScroll.SetMinSize(fyne.NewSize(300, 150))
	logAccordion := widget.NewAccordion(
		widget.NewAccordionItem("Logs", ui.logScroll),
	)

	content := container.NewVBox(
		container.NewStack(ui.banner, container.NewPadded(ui.stateText)),
		container.NewHBox(
			widget.NewLabel("Last update:"),
			ui.lastUpdate.text,
		),
		widget.NewCard("Readings", "", readingsGrid),
		buttons,
		logAccordion,
	)

	window.SetCloseIntercept(func() {
		ui.lastUpdate.Stop()
		window.Close()
		ui.app.Quit()
	})

	go func() {
		<-ctx.Done()
		ui.lastUpdate.Stop()
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	window.SetContent(content)
	window.Resize(fyne.NewSize(400, 350))
	window.Show()
}

func (ui *MonitorUI) sendCommand(send func() error) {
	err := send()
	if err != nil {
		ui.Write([]byte("error sending command: " + err.Error() + "\n"))
	}
}
