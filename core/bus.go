// Package core implements a software (bit-banged) I2C bus master. The
// two-wire protocol is emulated by toggling two open-drain GPIO lines under
// program timing control, for platforms without a hardware I2C peripheral or
// where the controller pins are already taken.
//
// The engine is strictly single-threaded and caller-blocking: every public
// operation runs to completion, or to the configured timeout, on the calling
// goroutine. Any operation that could stall on a slave holding the clock low
// (clock stretching) is bounded by a Deadline and recovers the bus with a
// stop condition before surfacing the failure.
package core

import (
	"errors"
	"time"
)

// Default configuration, overridable via Config and the setters below.
const (
	DefaultDelay      = 10 * time.Microsecond  // half-bit period (~50 kHz)
	DefaultTimeout    = 100 * time.Millisecond // per-operation deadline
	DefaultBufferSize = 32

	minDelayMicros = 1
	maxDelayMicros = 255
)

// Sentinel errors returned at the API edges (Write, Tx, smbus helpers). The
// bit- and byte-level primitives report Result / TxStatus outcome values
// instead; these errors are their translation.
var (
	ErrAddrNack   = errors.New("softwire: address not acknowledged")
	ErrDataNack   = errors.New("softwire: data not acknowledged")
	ErrTimeout    = errors.New("softwire: bus operation timed out")
	ErrBufferFull = errors.New("softwire: transmit buffer full")
)

// Config carries the construction-time parameters of a Bus. The zero value
// of every field selects a documented default.
type Config struct {
	// InputMode is how released lines are configured. The default is
	// floating, relying on external bus pull-up resistors.
	InputMode InputMode

	// Delay is the half-bit period. Clamped to [1µs, 255µs].
	Delay time.Duration

	// Timeout bounds every bus operation. It must be several multiples of
	// Delay or clock-stretch waits can spuriously exceed it.
	Timeout time.Duration

	// TxBufferSize and RxBufferSize size the transaction buffers.
	TxBufferSize int
	RxBufferSize int

	// DelayFunc overrides the busy-wait delay primitive and Now overrides
	// the monotonic clock behind deadlines. Used by simulation tests.
	DelayFunc func(time.Duration)
	Now       func() time.Time
}

// Bus is a software I2C master on two GPIO lines.
type Bus struct {
	driver  LineDriver
	mode    InputMode
	delay   time.Duration
	timeout time.Duration
	delayFn func(time.Duration)
	now     func() time.Time

	// held is true while a transaction has left the bus claimed (SCL driven
	// low, no stop issued yet). A start on a held bus must be a repeated
	// start; returning to idle first would release the bus to other masters.
	held bool

	txAddress uint8
	txBuf     []byte
	txLen     int
	writeErr  bool

	rxBuf   []byte
	rxIndex int
	rxCount int
}

// New returns a Bus driving the given lines. The bus is not touched until
// Begin is called.
func New(driver LineDriver, cfg Config) *Bus {
	b := &Bus{
		driver:  driver,
		mode:    cfg.InputMode,
		timeout: cfg.Timeout,
		now:     cfg.Now,
		delayFn: cfg.DelayFunc,
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.delayFn == nil {
		b.delayFn = func(d time.Duration) { spinDelay(d, b.now) }
	}
	b.SetDelay(cfg.Delay)
	txSize := cfg.TxBufferSize
	if txSize <= 0 {
		txSize = DefaultBufferSize
	}
	rxSize := cfg.RxBufferSize
	if rxSize <= 0 {
		rxSize = DefaultBufferSize
	}
	b.txBuf = make([]byte, txSize)
	b.rxBuf = make([]byte, rxSize)
	return b
}

// Begin drives the bus to the idle state (both lines released high) by
// issuing a stop condition.
func (b *Bus) Begin() {
	b.Stop()
}

// End releases both lines with pull-ups disabled, returning the pins to
// plain floating inputs.
func (b *Bus) End() {
	b.mode = ModeFloating
	b.sdaHigh()
	b.sclHigh()
}

// SetDelay sets the half-bit period, clamped to [1µs, 255µs]. A zero or
// negative value selects the default.
func (b *Bus) SetDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultDelay
	}
	if d < minDelayMicros*time.Microsecond {
		d = minDelayMicros * time.Microsecond
	} else if d > maxDelayMicros*time.Microsecond {
		d = maxDelayMicros * time.Microsecond
	}
	b.delay = d
}

// Delay returns the current half-bit period.
func (b *Bus) Delay() time.Duration {
	return b.delay
}

// SetClock derives the half-bit period from a target bus frequency in hertz.
// The full period is clamped to [2µs, 510µs], i.e. roughly 2 kHz to 500 kHz.
func (b *Bus) SetClock(frequency uint32) {
	if frequency == 0 {
		frequency = 1
	}
	period := uint32(1000000) / frequency
	if period < 2 {
		period = 2
	} else if period > 2*maxDelayMicros {
		period = 2 * maxDelayMicros
	}
	b.SetDelay(time.Duration(period/2) * time.Microsecond)
}

// SetTimeout sets the per-operation deadline.
func (b *Bus) SetTimeout(d time.Duration) {
	if d > 0 {
		b.timeout = d
	}
}

// Timeout returns the per-operation deadline duration.
func (b *Bus) Timeout() time.Duration {
	return b.timeout
}

// EnablePullups selects whether released lines use the internal pull-up.
// Takes effect on the next release of each line.
func (b *Bus) EnablePullups(enable bool) {
	if enable {
		b.mode = ModePullUp
	} else {
		b.mode = ModeFloating
	}
}

func (b *Bus) newDeadline() Deadline {
	return newDeadline(b.timeout, b.now)
}

func (b *Bus) wait() {
	b.delayFn(b.delay)
}
