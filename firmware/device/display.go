//go:build tinygo

package device

import (
	"errors"
	"image/color"
	"machine"

	"github.com/calvinmclean/rangeguard"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	defaultDisplayAddress = 0x3C
	defaultDisplayWidth   = 128
	defaultDisplayHeight  = 64

	lineHeight = 12

	// ssd1306 command stream: control byte followed by "display off"
	displayOffCommand = 0xAE
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// OLED renders text rows on an SSD1306
type OLED struct {
	dev  *ssd1306.Device
	font *tinyfont.Font
}

// NewOLED configures the I2C bus and the display. Any failure wraps rangeguard.ErrDisplayInit
func NewOLED(cfg DisplayConfig) (*OLED, error) {
	if cfg.Bus == nil {
		return nil, errors.Join(rangeguard.ErrDisplayInit, errors.New("missing I2C bus"))
	}
	if cfg.Address == 0 {
		cfg.Address = defaultDisplayAddress
	}
	if cfg.Width == 0 {
		cfg.Width = defaultDisplayWidth
	}
	if cfg.Height == 0 {
		cfg.Height = defaultDisplayHeight
	}

	err := cfg.Bus.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       cfg.SDA,
		SCL:       cfg.SCL,
	})
	if err != nil {
		return nil, errors.Join(rangeguard.ErrDisplayInit, errors.New("error configuring I2C: "+err.Error()))
	}

	// The driver does not report a missing display, so check that it acknowledges a command
	err = cfg.Bus.Tx(cfg.Address, []byte{0x00, displayOffCommand}, nil)
	if err != nil {
		return nil, errors.Join(rangeguard.ErrDisplayInit, errors.New("no display at address: "+err.Error()))
	}

	dev := ssd1306.NewI2C(cfg.Bus)
	dev.Configure(ssd1306.Config{
		Address:  cfg.Address,
		Width:    cfg.Width,
		Height:   cfg.Height,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	dev.ClearDisplay()

	return &OLED{
		dev:  dev,
		font: &proggy.TinySZ8pt7b,
	}, nil
}

// ClearDisplay clears the buffer only. The screen keeps the previous frame until Display
func (o *OLED) ClearDisplay() {
	o.dev.ClearBuffer()
}

func (o *OLED) WriteLine(row int, text string) {
	y := int16(row+1)*lineHeight - 2
	tinyfont.WriteLine(o.dev, o.font, 0, y, text, white)
}

func (o *OLED) Display() error {
	return o.dev.Display()
}
