package ui

import (
	"io"

	"github.com/calvinmclean/rangeguard"
	"github.com/calvinmclean/rangeguard/firmware/commands"
)

// controllerWrapper sends serial console commands to the device
type controllerWrapper struct {
	writer io.Writer
}

func (c *controllerWrapper) Debug() error {
	return c.send(commands.DebugCommand.Flag)
}

func (c *controllerWrapper) Verbose() error {
	return c.send(commands.VerboseCommand.Flag)
}

func (c *controllerWrapper) Sweep() error {
	return c.send(commands.SweepCommand.Flag)
}

func (c *controllerWrapper) SetTimeoutPolicy(p rangeguard.TimeoutPolicy) error {
	input := byte('H')
	if p == rangeguard.PolicySafeFar {
		input = 'F'
	}
	return c.send(commands.PolicyCommand.Flag, input)
}

func (c *controllerWrapper) send(b ...byte) error {
	_, err := c.writer.Write(b)
	return err
}
