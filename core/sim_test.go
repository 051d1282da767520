package core

import (
	"time"
)

// The tests run the engine against a simulated open-drain bus with a scripted
// slave. The slave is a small I2C state machine advanced on every clock edge
// the master produces; a line is low when anyone drives it low.

// simClock is a fake monotonic clock. Every reading advances it by one
// microsecond so deadline polling loops make progress without real waiting.
type simClock struct {
	now time.Time
}

func newSimClock() *simClock {
	return &simClock{now: time.Unix(0, 0)}
}

func (c *simClock) Now() time.Time {
	c.now = c.now.Add(time.Microsecond)
	return c.now
}

// Sleep stands in for the busy-wait delay primitive.
func (c *simClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// at returns the current instant without advancing the clock.
func (c *simClock) at() time.Time {
	return c.now
}

// simBus implements LineDriver over simulated open-drain lines.
type simBus struct {
	clock *simClock
	slave *simSlave

	// master drive state, true = driving low
	masterSda bool
	masterScl bool

	lastMode InputMode

	// last effective line levels, for edge detection
	prevSda bool
	prevScl bool
}

func newSimBus(clock *simClock, slave *simSlave) *simBus {
	b := &simBus{clock: clock, slave: slave, prevSda: true, prevScl: true}
	if slave != nil {
		slave.clock = clock
	}
	return b
}

func (s *simBus) sdaLevel() bool {
	if s.masterSda {
		return false
	}
	if s.slave != nil && s.slave.sdaLow {
		return false
	}
	return true
}

func (s *simBus) sclLevel() bool {
	if s.masterScl {
		return false
	}
	if s.slave != nil && s.clock.at().Before(s.slave.sclLowUntil) {
		return false
	}
	return true
}

func (s *simBus) idle() bool {
	return s.sdaLevel() && s.sclLevel()
}

func (s *simBus) update() {
	sda, scl := s.sdaLevel(), s.sclLevel()
	if s.slave != nil {
		s.slave.observe(s.prevSda, s.prevScl, sda, scl)
		// The slave may have changed its own drive state.
		sda, scl = s.sdaLevel(), s.sclLevel()
	}
	s.prevSda, s.prevScl = sda, scl
}

func (s *simBus) DriveLow(line Line) {
	if line == LineSDA {
		s.masterSda = true
	} else {
		s.masterScl = true
	}
	s.update()
}

func (s *simBus) Release(line Line, mode InputMode) {
	s.lastMode = mode
	if line == LineSDA {
		s.masterSda = false
	} else {
		s.masterScl = false
	}
	s.update()
}

func (s *simBus) ReadLevel(line Line) bool {
	s.update()
	if line == LineSDA {
		return s.sdaLevel()
	}
	return s.sclLevel()
}

type simPhase uint8

const (
	phaseIdle simPhase = iota
	phaseAddr
	phaseAddrAck
	phaseWrite
	phaseWriteAck
	phaseRead
	phaseReadAck
)

// simSlave is a scripted I2C slave. It samples SDA on rising clock edges and
// changes its own SDA drive on falling edges, like real silicon.
type simSlave struct {
	clock *simClock

	address uint8
	respond bool

	// readyAfter makes the slave ignore its address until the Nth observed
	// start condition, for exercising StartWait.
	readyAfter int

	// data supplied to master reads; reads past the end return 0xFF.
	data    []byte
	dataPos int

	// nackDataAfter nacks master-written bytes from that index on, -1 never.
	nackDataAfter int

	// clock stretching: stretchAddrAck stretches the address-acknowledge
	// clock pulse; stretchData stretches before read byte stretchAfterByte
	// (-1 disables).
	stretchAddrAck   time.Duration
	stretchAfterByte int
	stretchData      time.Duration

	// observations for assertions
	received   []byte
	masterAcks []bool
	starts     int
	stops      int

	// drive state
	sdaLow      bool
	sclLowUntil time.Time

	phase     simPhase
	bitCount  int
	shift     uint8
	bitsSent  int
	readMode  bool
	addrMatch bool
	masterAck bool
}

func newSimSlave(address uint8) *simSlave {
	return &simSlave{
		address:          address,
		respond:          true,
		nackDataAfter:    -1,
		stretchAfterByte: -1,
	}
}

func (s *simSlave) observe(prevSda, prevScl, sda, scl bool) {
	if prevScl && scl {
		if prevSda && !sda {
			s.onStart()
		} else if !prevSda && sda {
			s.onStop()
		}
		return
	}
	if !prevScl && scl {
		s.onRising(sda)
	} else if prevScl && !scl {
		s.onFalling()
	}
}

func (s *simSlave) onStart() {
	s.starts++
	s.phase = phaseAddr
	s.bitCount = 0
	s.shift = 0
	s.sdaLow = false
}

func (s *simSlave) onStop() {
	s.stops++
	s.phase = phaseIdle
	s.sdaLow = false
}

func (s *simSlave) onRising(sda bool) {
	switch s.phase {
	case phaseAddr, phaseWrite:
		s.shift <<= 1
		if sda {
			s.shift |= 1
		}
		s.bitCount++
	case phaseReadAck:
		s.masterAck = !sda
		s.masterAcks = append(s.masterAcks, s.masterAck)
	}
}

func (s *simSlave) onFalling() {
	switch s.phase {
	case phaseAddr:
		if s.bitCount == 8 {
			s.readMode = s.shift&1 == 1
			match := s.respond && s.shift>>1 == s.address
			if s.readyAfter > 0 && s.starts < s.readyAfter {
				match = false
			}
			s.addrMatch = match
			s.sdaLow = match
			s.phase = phaseAddrAck
			if s.stretchAddrAck > 0 {
				s.sclLowUntil = s.clock.at().Add(s.stretchAddrAck)
			}
		}

	case phaseAddrAck:
		s.sdaLow = false
		switch {
		case !s.addrMatch:
			s.phase = phaseIdle
		case s.readMode:
			s.phase = phaseRead
			s.bitsSent = 0
			s.driveReadBit()
		default:
			s.phase = phaseWrite
			s.bitCount = 0
			s.shift = 0
		}

	case phaseWrite:
		if s.bitCount == 8 {
			s.received = append(s.received, s.shift)
			s.sdaLow = !(s.nackDataAfter >= 0 && len(s.received) > s.nackDataAfter)
			s.phase = phaseWriteAck
		}

	case phaseWriteAck:
		s.sdaLow = false
		s.phase = phaseWrite
		s.bitCount = 0
		s.shift = 0

	case phaseRead:
		if s.bitsSent < 8 {
			s.driveReadBit()
		} else {
			// Release SDA for the master's acknowledge bit.
			s.sdaLow = false
			s.phase = phaseReadAck
		}

	case phaseReadAck:
		s.dataPos++
		if s.masterAck {
			if s.stretchAfterByte >= 0 && s.dataPos == s.stretchAfterByte {
				s.sclLowUntil = s.clock.at().Add(s.stretchData)
			}
			s.phase = phaseRead
			s.bitsSent = 0
			s.driveReadBit()
		} else {
			s.sdaLow = false
			s.phase = phaseIdle
		}
	}
}

func (s *simSlave) driveReadBit() {
	cur := byte(0xFF)
	if s.dataPos < len(s.data) {
		cur = s.data[s.dataPos]
	}
	s.sdaLow = cur&(0x80>>s.bitsSent) == 0
	s.bitsSent++
}

// newTestBus wires a Bus to a simulated bus with the given slave (nil for an
// empty bus) using the fake clock for both delays and deadlines.
func newTestBus(slave *simSlave, cfg Config) (*Bus, *simBus) {
	clock := newSimClock()
	sim := newSimBus(clock, slave)
	if cfg.Delay == 0 {
		cfg.Delay = 5 * time.Microsecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Millisecond
	}
	cfg.DelayFunc = clock.Sleep
	cfg.Now = clock.Now
	return New(sim, cfg), sim
}
