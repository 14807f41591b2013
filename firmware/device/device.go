//go:build tinygo

package device

import (
	"errors"
	"machine"

	"tinygo.org/x/drivers/servo"
)

// Device owns every peripheral of the range guard. Its fields satisfy the driver
// interfaces of firmware/controller
type Device struct {
	Ultrasonic  *Ultrasonic
	Environment *Environment
	Display     *OLED
	Servo       Servo
}

// Servo is satisfied by servo.Servo
type Servo interface {
	SetAngle(angle int) error
}

// unavailableServo stands in for a servo whose PWM could not be configured. Every write
// reports the setup error so the control loop logs it and keeps running
type unavailableServo struct {
	err error
}

func (s unavailableServo) SetAngle(int) error {
	return s.err
}

// New initializes the peripherals in boot order: DHT11, display, ultrasonic, servo. A display
// failure is returned as rangeguard.ErrDisplayInit and must halt the firmware. A servo failure
// is not returned, the Servo field reports it on every write instead
func New(cfg Config) (*Device, error) {
	environment := NewEnvironment(cfg.Environment)

	display, err := NewOLED(cfg.Display)
	if err != nil {
		return nil, err
	}

	ultrasonic := NewUltrasonic(cfg.Ultrasonic)

	var myServo Servo
	pwmServo, err := servo.New(cfg.Servo.PWM, cfg.Servo.Pin)
	if err != nil {
		err = errors.New("error creating servo: " + err.Error())
		println(err.Error())
		myServo = unavailableServo{err}
	} else {
		myServo = &pwmServo
	}

	return &Device{
		Ultrasonic:  ultrasonic,
		Environment: environment,
		Display:     display,
		Servo:       myServo,
	}, nil
}

// ReadByte reads the serial console without blocking
func (d *Device) ReadByte() (byte, error) {
	return machine.Serial.ReadByte()
}

func (d *Device) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}
