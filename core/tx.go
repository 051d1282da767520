package core

// Tx performs a complete write-then-read transaction against a 7-bit address:
// a write phase for w, a repeated start, a read phase filling r (last byte
// nacked), then a stop. Either phase may be empty. The signature structurally
// satisfies the I2C interface of tinygo.org/x/drivers, so TinyGo device
// drivers run unmodified over this software bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	a := uint8(addr)

	if len(w) > 0 {
		if err := b.startChecked(a, WriteMode); err != nil {
			return err
		}
		for _, c := range w {
			switch b.TransmitByte(c) {
			case Nack:
				b.Stop()
				return ErrDataNack
			case Timeout:
				return ErrTimeout
			}
		}
	}

	if len(r) > 0 {
		if err := b.startChecked(a, ReadMode); err != nil {
			return err
		}
		for i := range r {
			c, res := b.ReceiveByte(i != len(r)-1)
			if res != Ack {
				return ErrTimeout
			}
			r[i] = c
		}
	}

	if b.Stop() == Timeout {
		return ErrTimeout
	}
	return nil
}

// startChecked issues a (repeated) start and maps the outcome to an error,
// releasing the bus on an address nack.
func (b *Bus) startChecked(addr uint8, dir Direction) error {
	switch b.Start(addr, dir) {
	case Nack:
		b.Stop()
		return ErrAddrNack
	case Timeout:
		return ErrTimeout
	}
	return nil
}
