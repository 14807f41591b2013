package commands

import (
	"errors"
	"io"

	"github.com/calvinmclean/rangeguard"
)

// maxBytesPerPoll bounds the work done by Poll so the control loop keeps its cadence
const maxBytesPerPoll = 64

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(Controller, []byte) error
	Description string
}

// Controller is used to control a device
type Controller interface {
	Debug()
	Verbose()
	Sweep() error
	SetTimeoutPolicy(rangeguard.TimeoutPolicy)
}

var (
	DebugCommand = &Command{
		Flag:      'D',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Debug()
			return nil
		},
		Description: "Print the last status and counters.",
	}
	VerboseCommand = &Command{
		Flag:      'V',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Verbose()
			return nil
		},
		Description: "Enable verbose output.",
	}
	SweepCommand = &Command{
		Flag:      'S',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			return c.Sweep()
		},
		Description: "Sweep the servo to 0 and 180 degrees, then restore it.",
	}
	PolicyCommand = &Command{
		Flag:      'P',
		InputSize: 1,
		Run: func(c Controller, input []byte) error {
			switch in := input[0]; in {
			case 'H':
				c.SetTimeoutPolicy(rangeguard.PolicyHoldLast)
			case 'F':
				c.SetTimeoutPolicy(rangeguard.PolicySafeFar)
			default:
				return errors.New("invalid input: " + string(input))
			}
			return nil
		},
		Description: "Set the distance timeout policy. Input: 'H' (hold last state), 'F' (fall back to FAR).",
	}
)

var commands = []*Command{
	DebugCommand,
	VerboseCommand,
	SweepCommand,
	PolicyCommand,
}

// Dispatcher parses commands from a non-blocking byte source between loop iterations
type Dispatcher struct {
	in     io.ByteReader
	out    io.Writer
	cmdMap map[byte]*Command

	// pending is a command still waiting for input bytes
	pending *Command
	input   []byte
}

// NewDispatcher reads commands from in and writes help and errors to out
func NewDispatcher(in io.ByteReader, out io.Writer) *Dispatcher {
	d := &Dispatcher{
		in:     in,
		out:    out,
		cmdMap: map[byte]*Command{},
	}

	helpCommand := &Command{
		Flag:        'H',
		InputSize:   0,
		Description: "Show all available commands and their descriptions.",
		Run: func(c Controller, b []byte) error {
			d.help()
			return nil
		},
	}
	d.cmdMap[helpCommand.Flag] = helpCommand

	for _, cmd := range commands {
		d.cmdMap[cmd.Flag] = cmd
	}

	return d
}

// Poll runs every command that is complete in the input buffer. It returns as soon as no
// byte is available, so a command's input may arrive over several calls
func (d *Dispatcher) Poll(c Controller) {
	for range maxBytesPerPoll {
		b, err := d.in.ReadByte()
		if err != nil {
			return
		}

		if d.pending == nil {
			cmd, ok := d.cmdMap[b]
			if !ok {
				continue
			}
			d.pending = cmd
			d.input = d.input[:0]
		} else {
			d.input = append(d.input, b)
		}

		if uint(len(d.input)) < d.pending.InputSize {
			continue
		}

		cmd := d.pending
		d.pending = nil

		err = cmd.Run(c, d.input)
		if err != nil {
			io.WriteString(d.out, "error: "+err.Error()+"\r\n")
		}
	}
}

func (d *Dispatcher) help() {
	io.WriteString(d.out, "Available Commands:\r\n")
	for _, cmd := range append([]*Command{d.cmdMap['H']}, commands...) {
		io.WriteString(d.out, string(cmd.Flag)+": "+cmd.Description+"\r\n")
	}
}
