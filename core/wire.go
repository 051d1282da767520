package core

// TxStatus is the status code returned by EndTransmission. The numeric
// values are a compatibility contract callers depend on.
type TxStatus uint8

const (
	TxSuccess  TxStatus = 0 // transaction completed
	TxAddrNack TxStatus = 2 // address not acknowledged
	TxDataNack TxStatus = 3 // a data byte was not acknowledged
	TxTimeout  TxStatus = 4 // operation timed out
)

// Err maps a status code to its sentinel error, nil for TxSuccess.
func (s TxStatus) Err() error {
	switch s {
	case TxSuccess:
		return nil
	case TxAddrNack:
		return ErrAddrNack
	case TxDataNack:
		return ErrDataNack
	}
	return ErrTimeout
}

// BeginTransmission records the 7-bit target address and resets the transmit
// buffer. The bus is not touched until EndTransmission.
func (b *Bus) BeginTransmission(addr uint8) {
	b.txAddress = addr
	b.txLen = 0
}

// WriteByte appends one byte to the transmit buffer. When the buffer is full
// it records a sticky write error and returns ErrBufferFull; previously
// buffered bytes are untouched.
func (b *Bus) WriteByte(c byte) error {
	if b.txLen >= len(b.txBuf) {
		b.writeErr = true
		return ErrBufferFull
	}
	b.txBuf[b.txLen] = c
	b.txLen++
	return nil
}

// Write appends p to the transmit buffer, implementing io.Writer. On
// overflow it returns the number of bytes actually buffered and
// ErrBufferFull.
func (b *Bus) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := b.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteError reports whether any write overflowed the transmit buffer since
// the flag was last cleared. Overflow is detectable after the fact rather
// than aborting the transaction.
func (b *Bus) WriteError() bool {
	return b.writeErr
}

// ClearWriteError resets the sticky write error flag.
func (b *Bus) ClearWriteError() {
	b.writeErr = false
}

// EndTransmission executes the buffered write transaction: start with write
// direction, the buffered bytes, and a stop if sendStop is true. A failure
// aborts the rest of the transaction but always leaves the bus recoverable;
// nack paths release the bus with a stop and timeout paths have already been
// recovered by the bit engine.
func (b *Bus) EndTransmission(sendStop bool) TxStatus {
	switch b.Start(b.txAddress, WriteMode) {
	case Nack:
		b.Stop()
		return TxAddrNack
	case Timeout:
		return TxTimeout
	}

	for i := 0; i < b.txLen; i++ {
		switch b.TransmitByte(b.txBuf[i]) {
		case Nack:
			b.Stop()
			return TxDataNack
		case Timeout:
			return TxTimeout
		}
	}

	if sendStop {
		if b.Stop() == Timeout {
			return TxTimeout
		}
	}
	return TxSuccess
}

// RequestFrom reads up to quantity bytes from the slave into the receive
// buffer, acknowledging every byte except the last, which is nacked per the
// multi-byte read convention. It returns the number of bytes actually
// received, which is less than quantity if a failure truncated the read.
func (b *Bus) RequestFrom(addr uint8, quantity int, sendStop bool) int {
	b.rxIndex = 0
	b.rxCount = 0
	if quantity > len(b.rxBuf) {
		quantity = len(b.rxBuf)
	}

	if b.Start(addr, ReadMode) == Ack {
		for i := 0; i < quantity; i++ {
			c, res := b.ReceiveByte(i != quantity-1)
			if res != Ack {
				break
			}
			b.rxBuf[i] = c
			b.rxCount++
		}
	}

	if sendStop {
		b.Stop()
	}
	return b.rxCount
}

// Available returns the count of received bytes not yet consumed by Read.
func (b *Bus) Available() int {
	return b.rxCount - b.rxIndex
}

// Read returns and consumes the next received byte, or -1 if the buffer is
// exhausted.
func (b *Bus) Read() int {
	if b.rxIndex >= b.rxCount {
		return -1
	}
	c := b.rxBuf[b.rxIndex]
	b.rxIndex++
	return int(c)
}

// Peek returns the next received byte without consuming it, or -1 if the
// buffer is exhausted.
func (b *Bus) Peek() int {
	if b.rxIndex >= b.rxCount {
		return -1
	}
	return int(b.rxBuf[b.rxIndex])
}
