package filestore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/cfdpgo"
)

func TestComputeChecksum_Null(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0), computeChecksum([]byte("irrelevant"), cfdp.ChecksumNull))
}

func TestComputeChecksum_CRC32C(t *testing.T) {
	t.Parallel()

	a := computeChecksum([]byte("hello world"), cfdp.ChecksumCRC32C)
	b := computeChecksum([]byte("hello world"), cfdp.ChecksumCRC32C)
	assert.Equal(t, a, b, "checksum of identical content must be stable")

	c := computeChecksum([]byte("hello worlD"), cfdp.ChecksumCRC32C)
	assert.NotEqual(t, a, c)
}

func TestComputeChecksum_ModularWholeWords(t *testing.T) {
	t.Parallel()

	data := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}
	got := computeChecksum(data, cfdp.ChecksumModular)
	assert.Equal(t, uint32(3), got)
}

func TestComputeChecksum_ModularZeroPadsRemainder(t *testing.T) {
	t.Parallel()

	padded := computeChecksum([]byte{0x05, 0x00, 0x00, 0x00}, cfdp.ChecksumModular)
	unpadded := computeChecksum([]byte{0x05}, cfdp.ChecksumModular)
	assert.Equal(t, padded, unpadded)

	partial := computeChecksum([]byte{0x00, 0x00, 0x00, 0x05, 0x00, 0x00}, cfdp.ChecksumModular)
	assert.Equal(t, uint32(5), partial, "a short trailing word is treated as zero-padded, not dropped")
}

func TestComputeChecksum_ModularEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0), computeChecksum(nil, cfdp.ChecksumModular))
}
