package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/calvinmclean/rangeguard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerWrapper(t *testing.T) {
	var buf bytes.Buffer
	c := &controllerWrapper{writer: &buf}

	require.NoError(t, c.Debug())
	require.NoError(t, c.Sweep())
	require.NoError(t, c.Verbose())
	require.NoError(t, c.SetTimeoutPolicy(rangeguard.PolicySafeFar))
	require.NoError(t, c.SetTimeoutPolicy(rangeguard.PolicyHoldLast))

	assert.Equal(t, "DSVPFPH", buf.String())
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestControllerWrapperError(t *testing.T) {
	c := &controllerWrapper{writer: errWriter{}}
	assert.EqualError(t, c.Debug(), "closed")
}

func TestFormatElapsed(t *testing.T) {
	elapsed := 2*time.Minute + 5*time.Second + 42*time.Millisecond
	assert.Equal(t, "02:05.042", formatElapsed(elapsed))
	assert.Equal(t, "00:00.000", formatElapsed(0))
	assert.Equal(t, "61:00.999", formatElapsed(time.Hour+time.Minute+999*time.Millisecond))
}
