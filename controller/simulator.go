package controller

import (
	"errors"
	"io"
	"math"
	"sync"
	"time"

	"github.com/calvinmclean/rangeguard"
	"github.com/calvinmclean/rangeguard/firmware/commands"
	fwcontroller "github.com/calvinmclean/rangeguard/firmware/controller"
)

const (
	defaultSimulatorInterval = 250 * time.Millisecond
	defaultSimulatorPeriod   = 10 * time.Second

	simulatorMinCM = 5.0
	simulatorMaxCM = 40.0

	// every Nth distance read is lost to exercise the timeout handling
	simulatorTimeoutEvery = 25

	simulatorInputBuffer = 256
)

var errNoInput = errors.New("no input available")

// SimulatorConfig controls the simulated device. Zero values use defaults
type SimulatorConfig struct {
	// Interval is the loop interval of the simulated firmware
	Interval time.Duration
	// Period is the time for the simulated object to approach and move away again
	Period time.Duration
}

// Simulator runs the firmware control loop in-process with simulated peripherals. It
// behaves like the device's serial port: writes are commands and reads are console output
type Simulator struct {
	reader *io.PipeReader
	writer *io.PipeWriter
	input  simInput

	servo   *simServo
	display *simDisplay

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

var _ io.ReadWriteCloser = &Simulator{}

// NewSimulator starts the simulated firmware
func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSimulatorInterval
	}
	if cfg.Period <= 0 {
		cfg.Period = defaultSimulatorPeriod
	}

	r, w := io.Pipe()
	s := &Simulator{
		reader:  r,
		writer:  w,
		input:   make(simInput, simulatorInputBuffer),
		servo:   &simServo{},
		display: &simDisplay{},
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	c, err := fwcontroller.New(
		fwcontroller.Config{
			Interval:   cfg.Interval,
			SweepDelay: cfg.Interval,
		},
		newSimDistance(cfg.Period),
		simEnvironment{start: time.Now()},
		s.display,
		s.servo,
		w,
	)
	if err != nil {
		return nil, err
	}

	dispatcher := commands.NewDispatcher(s.input, w)

	go func() {
		defer close(s.stopped)
		c.Splash()
		c.Run(func() bool {
			dispatcher.Poll(c)
			select {
			case <-s.done:
				return false
			default:
				return true
			}
		})
	}()

	return s, nil
}

// Read returns console output of the simulated firmware
func (s *Simulator) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Write queues command bytes for the simulated firmware. Bytes are dropped when the queue is
// full, like a serial receive buffer
func (s *Simulator) Write(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, io.ErrClosedPipe
	default:
	}

	for _, b := range p {
		select {
		case s.input <- b:
		default:
		}
	}
	return len(p), nil
}

// Close stops the simulated firmware and waits for its loop to exit
func (s *Simulator) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.reader.Close()
		<-s.stopped
	})
	return nil
}

// Frame returns the rows last shown on the simulated display
func (s *Simulator) Frame() []string {
	return s.display.Frame()
}

// Angle returns the last angle written to the simulated servo
func (s *Simulator) Angle() int {
	return s.servo.Angle()
}

type simInput chan byte

func (in simInput) ReadByte() (byte, error) {
	select {
	case b := <-in:
		return b, nil
	default:
		return 0, errNoInput
	}
}

// simDistance moves an object between simulatorMinCM and simulatorMaxCM and back every period
type simDistance struct {
	start  time.Time
	period time.Duration
	now    func() time.Time
	reads  int
}

func newSimDistance(period time.Duration) *simDistance {
	return &simDistance{
		start:  time.Now(),
		period: period,
		now:    time.Now,
	}
}

func (d *simDistance) EchoTime(timeout time.Duration) (time.Duration, error) {
	d.reads++
	if d.reads%simulatorTimeoutEvery == 0 {
		return 0, rangeguard.ErrSensorTimeout
	}

	return echoFor(d.DistanceCM()), nil
}

// DistanceCM is a triangle wave starting at simulatorMaxCM
func (d *simDistance) DistanceCM() float64 {
	elapsed := d.now().Sub(d.start) % d.period
	phase := float64(elapsed) / float64(d.period)

	travel := 2 * phase
	if travel > 1 {
		travel = 2 - travel
	}

	return simulatorMaxCM - travel*(simulatorMaxCM-simulatorMinCM)
}

func echoFor(cm float64) time.Duration {
	micros := cm * 2 / rangeguard.SpeedOfSoundCMPerMicrosecond
	return time.Duration(math.Round(micros)) * time.Microsecond
}

// simEnvironment drifts slowly around room conditions
type simEnvironment struct {
	start time.Time
}

func (e simEnvironment) Temperature() (float64, error) {
	minutes := time.Since(e.start).Minutes()
	return 22.5 + math.Sin(minutes), nil
}

func (e simEnvironment) Humidity() (float64, error) {
	minutes := time.Since(e.start).Minutes()
	return 45 + 5*math.Cos(minutes), nil
}

// simDisplay keeps the rows being drawn apart from the rows last flushed, like the OLED buffer
type simDisplay struct {
	rows []string

	mtx   sync.Mutex
	shown []string
}

func (d *simDisplay) ClearDisplay() {
	d.rows = d.rows[:0]
}

func (d *simDisplay) WriteLine(row int, text string) {
	for len(d.rows) <= row {
		d.rows = append(d.rows, "")
	}
	d.rows[row] = text
}

func (d *simDisplay) Display() error {
	d.mtx.Lock()
	d.shown = append(d.shown[:0], d.rows...)
	d.mtx.Unlock()
	return nil
}

func (d *simDisplay) Frame() []string {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return append([]string(nil), d.shown...)
}

type simServo struct {
	mtx   sync.Mutex
	angle int
}

func (s *simServo) SetAngle(angle int) error {
	s.mtx.Lock()
	s.angle = angle
	s.mtx.Unlock()
	return nil
}

func (s *simServo) Angle() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.angle
}
