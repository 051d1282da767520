// Package bridge drives a softwire bus through a remote pin-control agent
// attached over a serial port, in the style of Bus Pirate raw bit-bang mode.
// The agent firmware executes single-byte commands against the two bus pins;
// read commands answer with a single '0' or '1' byte.
package bridge

import (
	"fmt"
	"io"

	"softwire/core"
)

// Wire commands understood by the agent.
const (
	cmdSdaLow     = 's' // drive SDA low
	cmdSdaRelease = 'S' // release SDA to input
	cmdSclLow     = 'c' // drive SCL low
	cmdSclRelease = 'C' // release SCL to input
	cmdReadSda    = 'd' // read SDA level, answers '0'/'1'
	cmdReadScl    = 'k' // read SCL level, answers '0'/'1'
	cmdPullupsOff = 'p' // released pins float
	cmdPullupsOn  = 'P' // released pins use the agent's internal pull-ups
)

// Driver implements core.LineDriver over a pin-control agent. The LineDriver
// contract has no error returns, so transport failures are latched in a
// sticky error: the driver reports idle-high levels once broken, which makes
// the engine surface a clean not-acknowledged or timeout, and Err tells the
// caller what actually happened.
type Driver struct {
	rw   io.ReadWriter
	mode core.InputMode
	sent bool // pull-up mode has been sent at least once
	err  error
}

// New returns a Driver speaking the agent protocol over rw, typically a
// serial.Port.
func New(rw io.ReadWriter) *Driver {
	return &Driver{rw: rw}
}

// Err returns the first transport error encountered, if any.
func (d *Driver) Err() error {
	return d.err
}

func (d *Driver) send(cmd byte) {
	if d.err != nil {
		return
	}
	if _, err := d.rw.Write([]byte{cmd}); err != nil {
		d.err = fmt.Errorf("bridge: send %q: %w", cmd, err)
	}
}

// DriveLow forces the line to output-low on the agent.
func (d *Driver) DriveLow(line core.Line) {
	if line == core.LineSDA {
		d.send(cmdSdaLow)
	} else {
		d.send(cmdSclLow)
	}
}

// Release switches the line to an input on the agent, updating the agent's
// pull-up selection when it changed.
func (d *Driver) Release(line core.Line, mode core.InputMode) {
	if !d.sent || mode != d.mode {
		if mode == core.ModePullUp {
			d.send(cmdPullupsOn)
		} else {
			d.send(cmdPullupsOff)
		}
		d.mode = mode
		d.sent = true
	}
	if line == core.LineSDA {
		d.send(cmdSdaRelease)
	} else {
		d.send(cmdSclRelease)
	}
}

// ReadLevel reads the line level from the agent. On a broken transport it
// reports high, the idle level of an open-drain line.
func (d *Driver) ReadLevel(line core.Line) bool {
	if line == core.LineSDA {
		d.send(cmdReadSda)
	} else {
		d.send(cmdReadScl)
	}
	if d.err != nil {
		return true
	}
	var reply [1]byte
	if _, err := io.ReadFull(d.rw, reply[:]); err != nil {
		d.err = fmt.Errorf("bridge: read level: %w", err)
		return true
	}
	return reply[0] == '1'
}
