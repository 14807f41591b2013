package controller

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/calvinmclean/rangeguard"
)

const (
	defaultEchoTimeout = 30 * time.Millisecond
	defaultInterval    = 100 * time.Millisecond
	defaultSweepDelay  = 500 * time.Millisecond
)

// DistanceSensor emits a trigger pulse and times the echo
type DistanceSensor interface {
	// EchoTime returns the round-trip echo time, or rangeguard.ErrSensorTimeout when no
	// echo completes within timeout
	EchoTime(timeout time.Duration) (time.Duration, error)
}

// EnvironmentSensor reads temperature (°C) and relative humidity (%). Each read can fail on its own
type EnvironmentSensor interface {
	Temperature() (float64, error)
	Humidity() (float64, error)
}

// Display is a text surface. Nothing is visible until Display is called
type Display interface {
	ClearDisplay()
	WriteLine(row int, text string)
	Display() error
}

// Servo matches tinygo.org/x/drivers/servo.Servo
type Servo interface {
	SetAngle(angle int) error
}

// Config has the values for the decision loop. Zero values are replaced with defaults
type Config struct {
	ThresholdCM float64
	EchoTimeout time.Duration
	Interval    time.Duration
	SweepDelay  time.Duration

	TimeoutPolicy rangeguard.TimeoutPolicy

	// ActuateEveryStep writes the servo on every Step instead of only when the command changes
	ActuateEveryStep bool
}

func (cfg *Config) setDefaults() {
	if cfg.ThresholdCM <= 0 {
		cfg.ThresholdCM = rangeguard.DefaultThresholdCM
	}
	if cfg.EchoTimeout <= 0 {
		cfg.EchoTimeout = defaultEchoTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.SweepDelay <= 0 {
		cfg.SweepDelay = defaultSweepDelay
	}
}

// Controller runs the measure -> classify -> actuate -> render cycle. It exclusively owns
// the sensors, servo, and display it is created with
type Controller struct {
	distance    DistanceSensor
	environment EnvironmentSensor
	display     Display
	servo       Servo
	out         io.Writer
	cfg         Config

	state   rangeguard.ProximityState
	command rangeguard.ServoCommand
	// servoSynced is false until a write of command succeeded
	servoSynced bool
	last    rangeguard.Status

	steps    uint32
	timeouts uint32

	startTime time.Time
	verbose   bool
}

// New creates a Controller and moves the servo to the FAR position. Console output is written to out
func New(cfg Config, distance DistanceSensor, environment EnvironmentSensor, display Display, servo Servo, out io.Writer) (*Controller, error) {
	switch {
	case distance == nil:
		return nil, errors.New("missing distance sensor")
	case environment == nil:
		return nil, errors.New("missing environment sensor")
	case display == nil:
		return nil, errors.New("missing display")
	case servo == nil:
		return nil, errors.New("missing servo")
	}
	if out == nil {
		out = io.Discard
	}
	cfg.setDefaults()

	c := &Controller{
		distance:    distance,
		environment: environment,
		display:     display,
		servo:       servo,
		out:         out,
		cfg:         cfg,
		state:       rangeguard.ProximityFar,
		command:     rangeguard.ServoFar,
		startTime:   time.Now(),
		last: rangeguard.Status{
			Distance:    rangeguard.InvalidDistance,
			Environment: rangeguard.InvalidEnvironment,
		},
	}

	// A servo that cannot be positioned at boot is not fatal, the next Step retries it
	err := servo.SetAngle(c.command.Angle())
	if err != nil {
		c.println("error setting servo angle:", err.Error())
	} else {
		c.servoSynced = true
	}

	return c, nil
}

// MeasureDistance takes one distance sample. A timeout produces rangeguard.InvalidDistance
func (c *Controller) MeasureDistance() rangeguard.DistanceSample {
	elapsed, err := c.distance.EchoTime(c.cfg.EchoTimeout)
	if err == nil && elapsed > c.cfg.EchoTimeout {
		err = rangeguard.ErrSensorTimeout
	}
	if err != nil {
		c.timeouts++
		if c.verbose {
			c.println("distance:", err.Error())
		}
		return rangeguard.InvalidDistance
	}

	return rangeguard.NewDistanceSample(elapsed)
}

// ClassifyProximity is rangeguard.Classify with the TimeoutPolicy applied to invalid samples
func (c *Controller) ClassifyProximity(sample rangeguard.DistanceSample) rangeguard.ProximityState {
	if !sample.Valid && c.cfg.TimeoutPolicy == rangeguard.PolicyHoldLast {
		return c.state
	}
	return rangeguard.Classify(sample, c.cfg.ThresholdCM)
}

// ActuateServo commands 180° for NEAR and 0° for FAR. The servo is only written when the
// command changes or the last write failed, unless ActuateEveryStep is set
func (c *Controller) ActuateServo(state rangeguard.ProximityState) error {
	command := rangeguard.CommandFor(state)
	if command == c.command && c.servoSynced && !c.cfg.ActuateEveryStep {
		return nil
	}

	if c.verbose {
		c.println("ActuateServo", strconv.Itoa(command.Angle()))
	}

	err := c.servo.SetAngle(command.Angle())
	if err != nil {
		return errors.New("error setting servo angle: " + err.Error())
	}
	c.command = command
	c.servoSynced = true

	return nil
}

// ReadEnvironment reads temperature and humidity. A failed read is NaN and does not affect the other
func (c *Controller) ReadEnvironment() rangeguard.EnvironmentSample {
	env := rangeguard.InvalidEnvironment

	temp, err := c.environment.Temperature()
	if err == nil {
		env.TemperatureC = temp
	} else if c.verbose {
		c.println("temperature:", err.Error())
	}

	hum, err := c.environment.Humidity()
	if err == nil {
		env.Humidity = hum
	} else if c.verbose {
		c.println("humidity:", err.Error())
	}

	return env
}

// RenderStatus rewrites the whole display with the current readings and the applied servo position
func (c *Controller) RenderStatus(distance rangeguard.DistanceSample, env rangeguard.EnvironmentSample, state rangeguard.ProximityState) error {
	c.display.ClearDisplay()
	for row, line := range Frame(distance, env, state, c.command) {
		c.display.WriteLine(row, line)
	}
	return c.display.Display()
}

// Splash shows the startup message
func (c *Controller) Splash() error {
	c.display.ClearDisplay()
	c.display.WriteLine(0, "Range Guard")
	c.display.WriteLine(2, "starting...")
	return c.display.Display()
}

// Step runs one iteration and prints its Status on the console. Errors are logged and
// never stop the loop
func (c *Controller) Step() rangeguard.Status {
	start := time.Now()

	distance := c.MeasureDistance()
	env := c.ReadEnvironment()
	state := c.ClassifyProximity(distance)

	err := c.ActuateServo(state)
	if err != nil {
		c.println(err.Error())
	}
	c.state = state

	err = c.RenderStatus(distance, env, state)
	if err != nil {
		c.println("error rendering status:", err.Error())
	}

	c.last = rangeguard.Status{
		Distance:    distance,
		Environment: env,
		State:       state,
		Command:     c.command,
	}
	c.steps++

	io.WriteString(c.out, c.last.String()+"\r\n")

	if c.verbose {
		c.println("Step took", time.Since(start).String())
	}

	return c.last
}

// Run calls Step every Interval. idle is called between iterations and Run returns once it
// reports false. A nil idle runs forever
func (c *Controller) Run(idle func() bool) {
	for {
		next := time.Now().Add(c.cfg.Interval)

		c.Step()

		if idle != nil && !idle() {
			return
		}

		time.Sleep(time.Until(next))
	}
}

// Sweep moves the servo through both positions and restores the current command
func (c *Controller) Sweep() error {
	c.println("Sweep")

	for _, command := range []rangeguard.ServoCommand{rangeguard.ServoFar, rangeguard.ServoNear} {
		err := c.servo.SetAngle(command.Angle())
		if err != nil {
			return errors.New("error setting servo angle: " + err.Error())
		}
		time.Sleep(c.cfg.SweepDelay)
	}

	err := c.servo.SetAngle(c.command.Angle())
	if err != nil {
		return errors.New("error resetting servo angle: " + err.Error())
	}

	return nil
}

// SetTimeoutPolicy changes how distance timeouts are classified
func (c *Controller) SetTimeoutPolicy(p rangeguard.TimeoutPolicy) {
	c.cfg.TimeoutPolicy = p
	c.println("TimeoutPolicy", p.String())
}

// Debug prints the last Status and counters
func (c *Controller) Debug() {
	d := c.ts() + " " + c.last.String()
	d += " policy=" + c.cfg.TimeoutPolicy.String()
	d += " threshold=" + rangeguard.FormatReading(c.cfg.ThresholdCM)
	d += " steps=" + strconv.FormatUint(uint64(c.steps), 10)
	d += " timeouts=" + strconv.FormatUint(uint64(c.timeouts), 10)
	io.WriteString(c.out, d+"\r\n")
}

// Verbose enables per-step logging
func (c *Controller) Verbose() {
	c.verbose = true
	c.println("Set Verbose Mode")
}

// State returns the current ProximityState
func (c *Controller) State() rangeguard.ProximityState {
	return c.state
}

// Last returns the Status of the latest Step
func (c *Controller) Last() rangeguard.Status {
	return c.last
}

func (c *Controller) println(parts ...string) {
	line := c.ts()
	for _, p := range parts {
		line += " " + p
	}
	io.WriteString(c.out, line+"\r\n")
}

// ts returns the uptime timestamp for logging
func (c *Controller) ts() string {
	return "[" + time.Since(c.startTime).Round(time.Millisecond).String() + "]"
}
