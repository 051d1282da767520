package smbus

import "testing"

func TestCRC8(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint8
	}{
		{[]byte{}, 0x00},
		{[]byte{0x00}, 0x00},
		{[]byte{0x00, 0x00}, 0x00},
		// Standard CRC-8 check value (poly 0x07, init 0, no reflection).
		{[]byte("123456789"), 0xF4},
		{[]byte{0xFF}, 0xF3},
		{[]byte{0x01}, 0x07},
	}

	for _, tc := range testCases {
		if got := CRC8(tc.data); got != tc.expected {
			t.Errorf("CRC8(% x) = %#02x, want %#02x", tc.data, got, tc.expected)
		}
	}
}

func TestCRC8ChunkingAssociativity(t *testing.T) {
	// Folding byte by byte must equal folding any two contiguous sub-ranges
	// through the same update function.
	data := []byte{0x5A, 0x00, 0xFF, 0x13, 0x37, 0xA5, 0x42, 0x08}
	whole := CRC8(data)

	for split := 0; split <= len(data); split++ {
		crc := uint8(0)
		for _, b := range data[:split] {
			crc = CRC8Update(crc, b)
		}
		for _, b := range data[split:] {
			crc = CRC8Update(crc, b)
		}
		if crc != whole {
			t.Errorf("split at %d: CRC = %#02x, want %#02x", split, crc, whole)
		}
	}
}

func TestCRC8Different(t *testing.T) {
	crc1 := CRC8([]byte{0x01, 0x02, 0x03})
	crc2 := CRC8([]byte{0x01, 0x02, 0x04})
	if crc1 == crc2 {
		t.Errorf("CRC8 collision: both inputs produced %#02x", crc1)
	}
}
