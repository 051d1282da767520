package smbus

import (
	"errors"
	"fmt"

	"softwire/core"
)

var (
	// ErrShortRead is returned when the slave supplied fewer bytes than the
	// protocol requires.
	ErrShortRead = errors.New("smbus: short read")

	// ErrPEC is returned when a received Packet Error Code does not match
	// the checksum of the transferred bytes.
	ErrPEC = errors.New("smbus: packet error code mismatch")
)

// Bus is the transaction surface the helpers need. *core.Bus satisfies it.
type Bus interface {
	BeginTransmission(addr uint8)
	Write(p []byte) (int, error)
	EndTransmission(sendStop bool) core.TxStatus
	RequestFrom(addr uint8, quantity int, sendStop bool) int
	Read() int
}

// Device addresses one SMBus slave. With PEC enabled every write transaction
// carries a trailing CRC-8 over the whole frame (including both address
// bytes) and every read verifies the checksum the slave appends.
type Device struct {
	Bus  Bus
	Addr uint8
	PEC  bool
}

// New returns a Device for the given 7-bit address.
func New(bus Bus, addr uint8) *Device {
	return &Device{Bus: bus, Addr: addr}
}

// SendByte performs the SMBus Send Byte protocol.
func (d *Device) SendByte(value uint8) error {
	return d.writeFrame("send byte", []byte{value})
}

// ReceiveByte performs the SMBus Receive Byte protocol.
func (d *Device) ReceiveByte() (uint8, error) {
	count := 1
	if d.PEC {
		count++
	}
	if n := d.Bus.RequestFrom(d.Addr, count, true); n != count {
		return 0, ErrShortRead
	}
	value := uint8(d.Bus.Read())
	if d.PEC {
		crc := CRC8Update(0, d.Addr<<1|1)
		crc = CRC8Update(crc, value)
		if uint8(d.Bus.Read()) != crc {
			return 0, ErrPEC
		}
	}
	return value, nil
}

// WriteByteData writes one byte to a register.
func (d *Device) WriteByteData(reg, value uint8) error {
	return d.writeFrame("write byte data", []byte{reg, value})
}

// ReadByteData reads one byte from a register.
func (d *Device) ReadByteData(reg uint8) (uint8, error) {
	data, err := d.readRegister("read byte data", reg, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// WriteWordData writes a 16-bit word to a register, low byte first per the
// SMBus specification.
func (d *Device) WriteWordData(reg uint8, value uint16) error {
	return d.writeFrame("write word data", []byte{reg, uint8(value), uint8(value >> 8)})
}

// ReadWordData reads a 16-bit little-endian word from a register.
func (d *Device) ReadWordData(reg uint8) (uint16, error) {
	data, err := d.readRegister("read word data", reg, 2)
	if err != nil {
		return 0, err
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

// writeFrame transmits frame, appending the PEC when enabled. The checksum
// covers the write address byte and the frame.
func (d *Device) writeFrame(op string, frame []byte) error {
	d.Bus.BeginTransmission(d.Addr)
	if _, err := d.Bus.Write(frame); err != nil {
		return fmt.Errorf("smbus: %s: %w", op, err)
	}
	if d.PEC {
		crc := CRC8Update(0, d.Addr<<1)
		for _, b := range frame {
			crc = CRC8Update(crc, b)
		}
		if _, err := d.Bus.Write([]byte{crc}); err != nil {
			return fmt.Errorf("smbus: %s: %w", op, err)
		}
	}
	if status := d.Bus.EndTransmission(true); status != core.TxSuccess {
		return fmt.Errorf("smbus: %s: %w", op, status.Err())
	}
	return nil
}

// readRegister writes the register pointer without a stop, then reads size
// bytes (plus the PEC when enabled) under a repeated start.
func (d *Device) readRegister(op string, reg uint8, size int) ([]byte, error) {
	d.Bus.BeginTransmission(d.Addr)
	if _, err := d.Bus.Write([]byte{reg}); err != nil {
		return nil, fmt.Errorf("smbus: %s: %w", op, err)
	}
	if status := d.Bus.EndTransmission(false); status != core.TxSuccess {
		return nil, fmt.Errorf("smbus: %s: %w", op, status.Err())
	}

	count := size
	if d.PEC {
		count++
	}
	if n := d.Bus.RequestFrom(d.Addr, count, true); n != count {
		return nil, ErrShortRead
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = uint8(d.Bus.Read())
	}
	if d.PEC {
		crc := CRC8Update(0, d.Addr<<1)
		crc = CRC8Update(crc, reg)
		crc = CRC8Update(crc, d.Addr<<1|1)
		for _, b := range data {
			crc = CRC8Update(crc, b)
		}
		if uint8(d.Bus.Read()) != crc {
			return nil, ErrPEC
		}
	}
	return data, nil
}
