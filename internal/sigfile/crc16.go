package sigfile

const crcPoly = 0x8408

// CRC16 computes the checksum stored in signature leaves: the reflected
// CCITT polynomial (0x8408) seeded with 0xFFFF, complemented, then byte
// swapped. An empty input yields 0.
func CRC16(data []byte) uint16 {
	if len(data) == 0 {
		return 0
	}

	crc := uint32(0xFFFF)
	for _, b := range data {
		v := uint32(b)
		for i := 0; i < 8; i++ {
			if (crc^v)&1 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
			v >>= 1
		}
	}

	crc = ^crc
	crc = (crc << 8) | ((crc >> 8) & 0xFF)
	return uint16(crc)
}
