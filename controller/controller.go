package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/calvinmclean/rangeguard"

	"go.bug.st/serial"
)

// Controller bridges a terminal or UI to the device's serial console. Bytes from the input are
// forwarded as commands and every line from the device is echoed to the output. Status lines
// are parsed and sent to the registered StatusSinks
type Controller struct {
	port   io.ReadWriteCloser
	logger *slog.Logger
	sinks  []StatusSink

	writeMtx sync.Mutex

	mtx       sync.Mutex
	latest    rangeguard.Status
	hasLatest bool

	closeOnce sync.Once
	closeErr  error
}

// New opens the configured serial port, or starts a simulated device for SerialPortNone
func New(cfg Config, logger *slog.Logger) (*Controller, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.SerialPort == SerialPortNone {
		sim, err := NewSimulator(SimulatorConfig{})
		if err != nil {
			return nil, fmt.Errorf("error starting simulator: %w", err)
		}
		return NewWithPort(sim, logger), nil
	}

	baud, _ := cfg.baudRate()
	port, err := serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", cfg.SerialPort, err)
	}

	return NewWithPort(port, logger), nil
}

// NewWithPort creates a Controller for an already open connection
func NewWithPort(port io.ReadWriteCloser, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		port:   port,
		logger: logger,
	}
}

// AddSink registers a StatusSink. It must be called before Run
func (c *Controller) AddSink(s StatusSink) {
	c.sinks = append(c.sinks, s)
}

// Run forwards in to the device and device lines to out until the context is cancelled or the
// connection fails. The end of in does not stop Run
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	if in != nil {
		go func() {
			_, err := io.Copy(writerFunc(c.write), in)
			if err != nil && ctx.Err() == nil {
				c.logger.Warn("stopped forwarding input", "error", err)
			}
		}()
	}

	scanner := bufio.NewScanner(c.port)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if out != nil {
			_, err := fmt.Fprintln(out, line)
			if err != nil {
				c.logger.Warn("error writing output", "error", err)
			}
		}

		status, err := rangeguard.ParseStatus(line)
		if err != nil {
			if !errors.Is(err, rangeguard.ErrNotStatus) {
				c.logger.Warn("invalid status line", "line", line, "error", err)
			}
			continue
		}
		c.record(ctx, status)
	}

	if ctx.Err() != nil {
		return nil
	}

	err := scanner.Err()
	if err != nil {
		return fmt.Errorf("error reading device: %w", err)
	}
	return nil
}

func (c *Controller) record(ctx context.Context, status rangeguard.Status) {
	c.mtx.Lock()
	c.latest = status
	c.hasLatest = true
	c.mtx.Unlock()

	for _, s := range c.sinks {
		err := s.Record(ctx, status)
		if err != nil {
			c.logger.Warn("error recording status", "error", err)
		}
	}
}

// Latest returns the most recent Status received from the device
func (c *Controller) Latest() (rangeguard.Status, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.latest, c.hasLatest
}

// Send writes a single command byte to the device
func (c *Controller) Send(cmd byte) error {
	_, err := c.write([]byte{cmd})
	if err != nil {
		return fmt.Errorf("error sending command %q: %w", cmd, err)
	}
	return nil
}

func (c *Controller) write(p []byte) (int, error) {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()
	return c.port.Write(p)
}

// Close closes the connection. It is safe to call more than once
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.port.Close()
	})
	return c.closeErr
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
