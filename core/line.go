package core

// Line identifies one of the two bus lines.
type Line uint8

const (
	LineSDA Line = iota // data line
	LineSCL             // clock line
)

// InputMode selects how a released line is configured: left floating (an
// external pull-up resistor raises it) or held high by an internal pull-up.
type InputMode uint8

const (
	ModeFloating InputMode = iota
	ModePullUp
)

// LineDriver is the abstract pin interface the engine uses.
// Platform-specific implementations handle actual hardware control.
//
// The bus is open-drain: a line is only ever driven low or released, never
// driven high. None of the operations can fail; host-side adapters that talk
// to hardware over a fallible transport keep a sticky error out-of-band.
type LineDriver interface {
	// DriveLow forces the line to output-low.
	DriveLow(line Line)

	// Release switches the line to the given input mode, letting the bus
	// pull-up raise it.
	Release(line Line, mode InputMode)

	// ReadLevel returns the instantaneous logic level of the line.
	ReadLevel(line Line) bool
}

// Line helpers. Direction changes are wrapped in best-effort interrupt
// suppression so an interrupt handler cannot observe a half-configured pin;
// on hosts without interrupt control these are no-ops.

func (b *Bus) sdaLow() {
	state := disableInterrupts()
	b.driver.DriveLow(LineSDA)
	restoreInterrupts(state)
}

func (b *Bus) sdaHigh() {
	b.driver.Release(LineSDA, b.mode)
}

func (b *Bus) sclLow() {
	state := disableInterrupts()
	b.driver.DriveLow(LineSCL)
	restoreInterrupts(state)
}

func (b *Bus) sclHigh() {
	b.driver.Release(LineSCL, b.mode)
}

func (b *Bus) readSda() bool {
	return b.driver.ReadLevel(LineSDA)
}

func (b *Bus) readScl() bool {
	return b.driver.ReadLevel(LineSCL)
}
