// Package smbus provides the CRC-8 checksum used as the SMBus Packet Error
// Code and register-access helpers for SMBus devices on a softwire bus.
package smbus

// crc8Poly is the standard degree-8 generator x^8 + x^2 + x + 1.
const crc8Poly = 0x107

// CRC8Update folds one byte into a running CRC-8 value. Pure function; the
// accumulator is owned entirely by the caller, so an arbitrary-length payload
// can be folded byte by byte or in chunks.
func CRC8Update(crc, data uint8) uint8 {
	crc ^= data
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = uint8((uint16(crc) << 1) ^ crc8Poly)
		} else {
			crc <<= 1
		}
	}
	return crc
}

// CRC8 calculates the checksum of data starting from a zero accumulator.
func CRC8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc = CRC8Update(crc, b)
	}
	return crc
}
