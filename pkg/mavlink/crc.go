// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

// CRC-16/MCRF4XX (X.25 without the final inversion), the checksum every
// MAVLink implementation uses. Seeded with 0xFFFF, reflected polynomial
// 0x8408, no output XOR. Check value: CalculateCRC([]byte("123456789"))
// == 0x6F91.
const (
	crcInitial = 0xFFFF
	crcPoly    = 0x8408 // 0x1021 reflected
)

var crcTable = func() [256]uint16 {
	var table [256]uint16
	for i := range table {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
	return table
}()

// AccumulateCRC folds a single byte into a running CRC.
func AccumulateCRC(crc uint16, b byte) uint16 {
	return (crc >> 8) ^ crcTable[byte(crc)^b]
}

// CalculateCRC computes the CRC over data. Empty input returns the seed
// value 0xFFFF.
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc = AccumulateCRC(crc, b)
	}
	return crc
}

// frameChecksum computes the wire checksum for a frame body (header minus
// magic, plus payload). Known messages fold in their CRC_EXTRA seed;
// unknown ones are checksummed bare, matching what a sender without the
// message definition would produce.
func frameChecksum(body []byte, extra byte, withExtra bool) uint16 {
	crc := CalculateCRC(body)
	if withExtra {
		crc = AccumulateCRC(crc, extra)
	}
	return crc
}
