// Package periphgpio adapts two periph.io GPIO pins to the softwire line
// interface, for Linux SBCs and FTDI-style adapters supported by periph.io.
// Open-drain emulation: a line is driven by switching the pin to output-low
// and released by switching it back to an input with the selected pull.
package periphgpio

import (
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"softwire/core"
)

// Driver implements core.LineDriver over two gpio.PinIO pins. Pin errors are
// latched in a sticky error, see Err.
type Driver struct {
	sda gpio.PinIO
	scl gpio.PinIO
	err error
}

// New returns a Driver for the given data and clock pins. The pins are not
// touched until the bus is started.
func New(sda, scl gpio.PinIO) *Driver {
	return &Driver{sda: sda, scl: scl}
}

// NewBus builds a softwire bus on the two pins clocked at f.
func NewBus(sda, scl gpio.PinIO, f physic.Frequency, cfg core.Config) *core.Bus {
	b := core.New(New(sda, scl), cfg)
	if f > 0 {
		b.SetClock(uint32(f / physic.Hertz))
	}
	return b
}

// Err returns the first pin configuration error encountered, if any.
func (d *Driver) Err() error {
	return d.err
}

func (d *Driver) pin(line core.Line) gpio.PinIO {
	if line == core.LineSDA {
		return d.sda
	}
	return d.scl
}

func (d *Driver) check(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// DriveLow switches the pin to output-low.
func (d *Driver) DriveLow(line core.Line) {
	d.check(d.pin(line).Out(gpio.Low))
}

// Release switches the pin to an input so the bus pull-up raises it.
func (d *Driver) Release(line core.Line, mode core.InputMode) {
	pull := gpio.Float
	if mode == core.ModePullUp {
		pull = gpio.PullUp
	}
	d.check(d.pin(line).In(pull, gpio.NoEdge))
}

// ReadLevel returns the pin's logic level.
func (d *Driver) ReadLevel(line core.Line) bool {
	return d.pin(line).Read() == gpio.High
}

// DefaultConfig is a conservative starting point for hosts: 100 kHz clock
// timing with a generous timeout, since user-space GPIO toggling is slow and
// jittery compared to an MCU.
func DefaultConfig() core.Config {
	return core.Config{
		Delay:   5 * time.Microsecond,
		Timeout: 250 * time.Millisecond,
	}
}
