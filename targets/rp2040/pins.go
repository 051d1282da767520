//go:build rp2040 || rp2350

package main

import (
	"machine"

	"softwire/core"
)

// pinDriver implements core.LineDriver on two machine pins. Driving low sets
// the output level before switching direction so the pin never glitches
// high; the core engine wraps the call in interrupt suppression.
type pinDriver struct {
	sda machine.Pin
	scl machine.Pin
}

func (d pinDriver) pin(line core.Line) machine.Pin {
	if line == core.LineSDA {
		return d.sda
	}
	return d.scl
}

func (d pinDriver) DriveLow(line core.Line) {
	p := d.pin(line)
	p.Low()
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
}

func (d pinDriver) Release(line core.Line, mode core.InputMode) {
	m := machine.PinInput
	if mode == core.ModePullUp {
		m = machine.PinInputPullup
	}
	d.pin(line).Configure(machine.PinConfig{Mode: m})
}

func (d pinDriver) ReadLevel(line core.Line) bool {
	return d.pin(line).Get()
}
