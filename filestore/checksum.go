package filestore

import (
	"hash/crc32"

	"github.com/marmos91/cfdpgo"
)

// computeChecksum applies the CFDP checksum algorithm named by checksumType
// to the full content of b.
func computeChecksum(b []byte, checksumType cfdp.ChecksumType) uint32 {
	switch checksumType {
	case cfdp.ChecksumNull:
		return 0
	case cfdp.ChecksumCRC32C:
		return crc32.Checksum(b, crc32.MakeTable(crc32.Castagnoli))
	default: // ChecksumModular
		return modularChecksum(b)
	}
}

// modularChecksum implements CFDP's legacy algorithm 0: the file is summed
// 4 bytes at a time as unsigned 32-bit words, wrapping on overflow, with
// any final partial word zero-padded on the right.
func modularChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var word [4]byte
		copy(word[:], b[i:min(i+4, len(b))])
		sum += uint32(word[0])<<24 | uint32(word[1])<<16 | uint32(word[2])<<8 | uint32(word[3])
	}
	return sum
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
