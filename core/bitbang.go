package core

// Result is the outcome of a bit- or byte-level bus primitive. Callers must
// inspect and propagate it; a primitive never assumes success.
type Result uint8

const (
	Ack     Result = iota // slave acknowledged
	Nack                  // slave actively refused
	Timeout               // slave or bus unresponsive beyond the deadline
)

func (r Result) String() string {
	switch r {
	case Ack:
		return "ack"
	case Nack:
		return "nack"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Direction is the read/write flag carried in the address byte.
type Direction uint8

const (
	WriteMode Direction = 0
	ReadMode  Direction = 1
)

func rawAddress(addr uint8, dir Direction) uint8 {
	return addr<<1 | uint8(dir)
}

// sclHighAndStretch releases SCL and waits for it to actually rise. A slave
// stretching the clock holds it low; the wait is a tight spin because a
// stretch is expected to be short relative to the timeout. Returns false if
// the deadline expires first.
func (b *Bus) sclHighAndStretch(t *Deadline) bool {
	b.sclHigh()
	for !b.readScl() {
		if t.Expired() {
			return false
		}
	}
	return true
}

// Stop issues a stop condition, leaving the bus idle with both lines high.
// Returns Timeout if a slave stretches the clock past the deadline.
func (b *Bus) Stop() Result {
	t := b.newDeadline()

	b.sclLow()
	b.wait()

	b.sdaLow()
	b.wait()

	if !b.sclHighAndStretch(&t) {
		// Clock stuck low. Release our SDA drive and keep the bus marked
		// held, so the next start degrades to a repeated start instead of
		// pulling SDA low under a low clock.
		b.sdaHigh()
		return Timeout
	}
	b.wait()

	// SDA rising while SCL is high is the stop condition.
	b.sdaHigh()
	b.wait()

	b.held = false
	return Ack
}

// clearStuckData pulses SCL until a slave stops driving SDA, at most nine
// cycles: enough for a slave interrupted mid-byte to shift out its remaining
// bits and see a not-acknowledge. Expects SCL released high on entry and
// leaves it there. Returns false if the deadline expires or SDA is still low
// after nine cycles.
func (b *Bus) clearStuckData(t *Deadline) bool {
	for i := 0; i < 9; i++ {
		if b.readSda() {
			return true
		}
		b.sclLow()
		b.wait()
		if !b.sclHighAndStretch(t) {
			return false
		}
		b.wait()
	}
	return b.readSda()
}

// recoverBus returns a wedged bus to idle after a timeout. A plain stop is
// not enough: the slave may still be stretching SCL or driving SDA (an
// unfinished acknowledge or data bit), and a stop's own clock edge would let
// it drive the next bit. Instead: wait out the stretch, clock out whatever
// the slave is holding, then abort its transfer with a start condition
// followed directly by a stop — no clock edge in between, so the slave
// cannot claim SDA again. Every step is deadline-bounded; if the slave never
// releases a line the bus stays marked held and the next start retries the
// recovery through RepeatedStart.
func (b *Bus) recoverBus() {
	t := b.newDeadline()

	b.sdaHigh()
	if !b.sclHighAndStretch(&t) {
		return
	}
	b.wait()

	if !b.clearStuckData(&t) {
		return
	}

	b.sdaLow()
	b.wait()
	b.sdaHigh()
	b.wait()

	b.held = false
}

// Start issues a start condition and shifts out the address byte. On a bus
// still held by a previous transaction it degrades to a repeated start, since
// pulling SDA low under a low clock would not register as a start at all.
func (b *Bus) Start(addr uint8, dir Direction) Result {
	if b.held {
		return b.RepeatedStart(addr, dir)
	}

	// SDA falling while SCL is high is the start condition.
	b.sdaLow()
	b.wait()

	b.sclLow()
	b.wait()

	b.held = true
	return b.TransmitByte(rawAddress(addr, dir))
}

// RepeatedStart issues a start condition from a still-busy bus (SCL low)
// without first returning to idle, then shifts out the address byte. Required
// when a transaction switches direction without releasing the bus.
func (b *Bus) RepeatedStart(addr uint8, dir Direction) Result {
	t := b.newDeadline()

	b.sclLow()
	b.wait()

	b.sdaHigh()
	b.wait()

	if !b.sclHighAndStretch(&t) {
		b.recoverBus()
		return Timeout
	}
	b.wait()

	// A slave interrupted mid-transfer may still be driving SDA; clock it
	// out before claiming the line, or the falling edge below would not
	// register as a start.
	if !b.clearStuckData(&t) {
		return Timeout
	}

	b.sdaLow()
	b.wait()

	b.held = true
	return b.TransmitByte(rawAddress(addr, dir))
}

// StartWait repeatedly attempts a start plus address byte until the slave
// acknowledges, stopping and retrying on a nack. Retries are bounded by one
// deadline. This implements waiting for a busy slave to become ready.
func (b *Bus) StartWait(addr uint8, dir Direction) Result {
	t := b.newDeadline()

	for !t.Expired() {
		switch b.Start(addr, dir) {
		case Ack:
			return Ack
		case Nack:
			// Slave not ready yet. Release the bus and try again.
			b.Stop()
		default:
			// Start has already recovered the bus.
			return Timeout
		}
	}
	return Timeout
}

// TransmitByte shifts out one byte, most-significant bit first, and samples
// the slave's acknowledge. SCL is left driven low on return, keeping the bus
// held between bytes. Every timeout path runs bus recovery so the bus is
// never left electrically stuck.
func (b *Bus) TransmitByte(data byte) Result {
	t := b.newDeadline()

	for i := 0; i < 8; i++ {
		b.sclLow()

		if data&0x80 != 0 {
			b.sdaHigh()
		} else {
			b.sdaLow()
		}
		b.wait()

		if !b.sclHighAndStretch(&t) {
			b.recoverBus()
			return Timeout
		}
		b.wait()

		data <<= 1
		if t.Expired() {
			b.recoverBus()
			return Timeout
		}
	}

	// Acknowledge bit: release SDA and clock it; the slave holds SDA low to
	// acknowledge.
	b.sclLow()
	b.sdaHigh()
	b.wait()

	if !b.sclHighAndStretch(&t) {
		b.recoverBus()
		return Timeout
	}

	res := Nack
	if !b.readSda() {
		res = Ack
	}
	b.wait()

	// Keep SCL low between bytes.
	b.sclLow()

	return res
}

// ReceiveByte shifts in one byte, most-significant bit first, then drives the
// caller-selected acknowledge: sendAck low (acknowledge) for all but the
// final expected byte of a read, released high (not-acknowledge) for the last
// byte, telling the slave to stop driving data. SCL is left driven low on
// return. Every timeout path runs bus recovery before returning.
func (b *Bus) ReceiveByte(sendAck bool) (byte, Result) {
	var data byte
	t := b.newDeadline()

	for i := 0; i < 8; i++ {
		data <<= 1

		b.sclLow()

		// Release SDA (it may still be driven from a previous acknowledge).
		b.sdaHigh()
		b.wait()

		if !b.sclHighAndStretch(&t) {
			b.recoverBus()
			return 0, Timeout
		}
		b.wait()

		if b.readSda() {
			data |= 1
		}
	}

	// Drive the acknowledge bit.
	b.sclLow()
	if sendAck {
		b.sdaLow()
	} else {
		b.sdaHigh()
	}
	b.wait()

	if !b.sclHighAndStretch(&t) {
		b.recoverBus()
		return 0, Timeout
	}
	b.wait()

	// Keep SCL low between bytes.
	b.sclLow()

	return data, Ack
}
