// Package linuxgpio adapts two Linux GPIO character-device lines to the
// softwire line interface using warthog618/gpiod. The lines are requested as
// open-drain outputs, so releasing a line is simply writing 1: the kernel
// floats the pin and the bus pull-up raises it.
package linuxgpio

import (
	"fmt"

	"github.com/warthog618/gpiod"

	"softwire/core"
)

// Driver implements core.LineDriver over two gpiod lines. Request or write
// errors are latched in a sticky error, see Err.
type Driver struct {
	sda  *gpiod.Line
	scl  *gpiod.Line
	mode core.InputMode
	err  error
}

// New requests the data and clock line offsets on the named chip (e.g.
// "gpiochip0") as open-drain outputs released high.
func New(chip string, sdaOffset, sclOffset int) (*Driver, error) {
	sda, err := gpiod.RequestLine(chip, sdaOffset,
		gpiod.AsOpenDrain, gpiod.AsOutput(1), gpiod.WithConsumer("softwire-sda"))
	if err != nil {
		return nil, fmt.Errorf("linuxgpio: request SDA line %d: %w", sdaOffset, err)
	}
	scl, err := gpiod.RequestLine(chip, sclOffset,
		gpiod.AsOpenDrain, gpiod.AsOutput(1), gpiod.WithConsumer("softwire-scl"))
	if err != nil {
		sda.Close()
		return nil, fmt.Errorf("linuxgpio: request SCL line %d: %w", sclOffset, err)
	}
	return &Driver{sda: sda, scl: scl}, nil
}

// Close releases both lines back to the kernel.
func (d *Driver) Close() error {
	err := d.sda.Close()
	if cerr := d.scl.Close(); err == nil {
		err = cerr
	}
	return err
}

// Err returns the first line error encountered, if any.
func (d *Driver) Err() error {
	return d.err
}

func (d *Driver) line(line core.Line) *gpiod.Line {
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

// DriveLow sinks the open-drain line.
func (d *Driver) DriveLow(line core.Line) {
	d.check(d.line(line).SetValue(0))
}

// Release lets the line float, updating the bias when the input mode changed.
func (d *Driver) Release(line core.Line, mode core.InputMode) {
	if mode != d.mode {
		bias := gpiod.WithBiasDisabled
		if mode == core.ModePullUp {
			bias = gpiod.WithPullUp
		}
		d.check(d.sda.Reconfigure(bias))
		d.check(d.scl.Reconfigure(bias))
		d.mode = mode
	}
	d.check(d.line(line).SetValue(1))
}

// ReadLevel returns the line's logic level.
func (d *Driver) ReadLevel(line core.Line) bool {
	v, err := d.line(line).Value()
	if err != nil {
		d.check(err)
		return true // idle level of an open-drain line
	}
	return v != 0
}
