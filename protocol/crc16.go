package protocol

// CRC16 computes the CCITT CRC16 (initial 0xFFFF, reflected) used in block
// trailers. Covers everything from the length byte to the end of payload.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
