//go:build tinygo

package main

import (
	"errors"
	"machine"
	"time"

	"github.com/calvinmclean/rangeguard"
	"github.com/calvinmclean/rangeguard/firmware/commands"
	"github.com/calvinmclean/rangeguard/firmware/controller"
	"github.com/calvinmclean/rangeguard/firmware/device"
)

const splashDuration = 2 * time.Second

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: 9600})

	deviceCfg := device.Config{
		Ultrasonic: device.UltrasonicConfig{
			Trigger: machine.GP9,
			Echo:    machine.GP10,
		},
		Environment: device.EnvironmentConfig{
			Pin: machine.GP2,
		},
		Display: device.DisplayConfig{
			Bus: machine.I2C0,
			SDA: machine.GP0,
			SCL: machine.GP1,
		},
		Servo: device.ServoConfig{
			PWM: machine.PWM2,
			Pin: machine.GP5,
		},
	}

	controllerCfg := controller.Config{
		ThresholdCM:   rangeguard.DefaultThresholdCM,
		EchoTimeout:   30 * time.Millisecond,
		Interval:      100 * time.Millisecond,
		TimeoutPolicy: rangeguard.PolicyHoldLast,
	}

	d, err := device.New(deviceCfg)
	// Only the display is fatal at boot, see device.New
	if errors.Is(err, rangeguard.ErrDisplayInit) {
		halt("OLED initialization failed: " + err.Error())
	}

	c, err := controller.New(controllerCfg, d.Ultrasonic, d.Environment, d.Display, d.Servo, d)
	if err != nil {
		halt(err.Error())
	}

	err = c.Splash()
	if err != nil {
		println("error showing splash:", err.Error())
	}
	time.Sleep(splashDuration)

	dispatcher := commands.NewDispatcher(d, d)
	c.Run(func() bool {
		dispatcher.Poll(c)
		return true
	})
}

// halt stops the firmware when the display is missing at boot
func halt(msg string) {
	for {
		println(msg)
		time.Sleep(5 * time.Second)
	}
}
