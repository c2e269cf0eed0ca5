package binutil

// DCBA
func ParseUint32LittleEndian(b []byte) uint32 {
	return (uint32(b[3]) << 24) |
		(uint32(b[2]) << 16) |
		(uint32(b[1]) << 8) |
		uint32(b[0])
}

func ParseInt32LittleEndian(b []byte) int32 {
	return int32(ParseUint32LittleEndian(b))
}

// BA
func ParseUint16LittleEndian(b []byte) uint16 {
	return (uint16(b[1]) << 8) | uint16(b[0])
}

// AB
func ParseUint16BigEndian(b []byte) uint16 {
	return (uint16(b[0]) << 8) | uint16(b[1])
}

// Sum8 returns the low byte of the additive sum of b.
func Sum8(b []byte) byte {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return byte(sum)
}
