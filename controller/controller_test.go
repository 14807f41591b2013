package controller

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/calvinmclean/rangeguard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is the host side of a serial connection. The test writes device output to the
// PipeWriter returned by newFakePort
type fakePort struct {
	reader *io.PipeReader

	mtx    sync.Mutex
	sent   bytes.Buffer
	closes int
}

func newFakePort() (*fakePort, *io.PipeWriter) {
	r, w := io.Pipe()
	return &fakePort{reader: r}, w
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.sent.Write(b)
}

func (p *fakePort) Close() error {
	p.mtx.Lock()
	p.closes++
	p.mtx.Unlock()
	return p.reader.Close()
}

func (p *fakePort) Sent() string {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.sent.String()
}

func channelSink(statuses chan rangeguard.Status) StatusSink {
	return SinkFunc(func(_ context.Context, s rangeguard.Status) error {
		statuses <- s
		return nil
	})
}

func waitForStatus(t *testing.T, statuses chan rangeguard.Status) rangeguard.Status {
	t.Helper()
	select {
	case s := <-statuses:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status")
	}
	return rangeguard.Status{}
}

func TestRun(t *testing.T) {
	port, device := newFakePort()
	c := NewWithPort(port, nil)

	statuses := make(chan rangeguard.Status, 10)
	c.AddSink(channelSink(statuses))

	_, ok := c.Latest()
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, strings.NewReader("DPF"), &out)
	}()

	_, err := device.Write([]byte("[1s] Sweep\r\nSTATUS d=10.0 t=25.0 h=40.0 p=NEAR a=180\r\n"))
	require.NoError(t, err)

	status := waitForStatus(t, statuses)
	assert.Equal(t, rangeguard.ProximityNear, status.State)
	assert.Equal(t, rangeguard.ServoNear, status.Command)
	assert.InDelta(t, 10.0, status.Distance.CM, 0.001)

	latest, ok := c.Latest()
	assert.True(t, ok)
	assert.Equal(t, status, latest)

	assert.Eventually(t, func() bool {
		return port.Sent() == "DPF"
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, "[1s] Sweep\nSTATUS d=10.0 t=25.0 h=40.0 p=NEAR a=180\n", out.String())
	assert.Equal(t, 1, port.closes)
}

func TestRunInvalidStatusIsNotRecorded(t *testing.T) {
	port, device := newFakePort()
	c := NewWithPort(port, nil)

	statuses := make(chan rangeguard.Status, 10)
	c.AddSink(channelSink(statuses))

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(context.Background(), nil, io.Discard)
	}()

	_, err := device.Write([]byte("STATUS d=abc\r\nSTATUS d=-- t=-- h=-- p=FAR a=0\r\n"))
	require.NoError(t, err)

	status := waitForStatus(t, statuses)
	assert.False(t, status.Distance.Valid)
	assert.Equal(t, rangeguard.ProximityFar, status.State)
	assert.Empty(t, statuses)

	require.NoError(t, device.Close())
	require.NoError(t, <-errCh)
}

func TestRunDeviceError(t *testing.T) {
	port, device := newFakePort()
	c := NewWithPort(port, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(context.Background(), nil, nil)
	}()

	device.CloseWithError(errors.New("device unplugged"))

	err := <-errCh
	require.Error(t, err)
	assert.ErrorContains(t, err, "device unplugged")
}

func TestRunSinkErrorDoesNotStop(t *testing.T) {
	port, device := newFakePort()
	c := NewWithPort(port, nil)

	calls := make(chan struct{}, 10)
	c.AddSink(SinkFunc(func(context.Context, rangeguard.Status) error {
		calls <- struct{}{}
		return errors.New("sink failed")
	}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(context.Background(), nil, nil)
	}()

	_, err := device.Write([]byte("STATUS d=1.0 t=1.0 h=1.0 p=NEAR a=180\r\nSTATUS d=20.0 t=1.0 h=1.0 p=FAR a=0\r\n"))
	require.NoError(t, err)
	require.NoError(t, device.Close())
	require.NoError(t, <-errCh)

	assert.Len(t, calls, 2)

	latest, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, rangeguard.ProximityFar, latest.State)
}

func TestSend(t *testing.T) {
	port, _ := newFakePort()
	c := NewWithPort(port, nil)

	require.NoError(t, c.Send('S'))
	require.NoError(t, c.Send('D'))
	assert.Equal(t, "SD", port.Sent())
}

func TestClose(t *testing.T) {
	port, _ := newFakePort()
	c := NewWithPort(port, nil)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, port.closes)
}

func TestNew(t *testing.T) {
	t.Run("MissingSerialPort", func(t *testing.T) {
		_, err := New(Config{}, nil)
		assert.ErrorContains(t, err, "missing serial port")
	})

	t.Run("InvalidBaudRate", func(t *testing.T) {
		_, err := New(Config{SerialPort: "/dev/ttyACM0", BaudRate: "fast"}, nil)
		assert.ErrorContains(t, err, "invalid baud rate")
	})

	t.Run("Simulated", func(t *testing.T) {
		c, err := New(Config{SerialPort: SerialPortNone}, nil)
		require.NoError(t, err)
		require.NoError(t, c.Close())
	})
}

func TestRunWithSimulator(t *testing.T) {
	sim, err := NewSimulator(SimulatorConfig{Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	c := NewWithPort(sim, nil)
	statuses := make(chan rangeguard.Status, 1000)
	c.AddSink(channelSink(statuses))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, w := io.Pipe()
	defer w.Close()

	out := &lockedBuffer{}
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx, r, out)
	}()

	status := waitForStatus(t, statuses)
	assert.Equal(t, rangeguard.CommandFor(status.State), status.Command)

	_, err = w.Write([]byte("D"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "policy=hold-last")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}

type lockedBuffer struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.buf.String()
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(newTestLogger(&buf))

	near := rangeguard.Status{State: rangeguard.ProximityNear, Command: rangeguard.ServoNear}
	far := rangeguard.Status{State: rangeguard.ProximityFar, Command: rangeguard.ServoFar}

	for _, s := range []rangeguard.Status{far, far, near, near, far} {
		require.NoError(t, sink.Record(context.Background(), s))
	}

	var changes []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "proximity changed") {
			changes = append(changes, scanner.Text())
		}
	}
	require.Len(t, changes, 3)
	assert.Contains(t, changes[0], "state=FAR")
	assert.Contains(t, changes[1], "state=NEAR")
	assert.Contains(t, changes[2], "state=FAR")
}
