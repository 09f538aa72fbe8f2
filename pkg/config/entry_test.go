package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
)

func TestMIBEntryConfig_ToEntry(t *testing.T) {
	t.Parallel()
	cfg := MIBEntryConfig{
		TransmissionMode:     "acknowledged",
		MaxFileSegmentLength: 2048,
		ChecksumType:         "crc32c",
		PositiveAckTimeout:   time.Second,
		PositiveAckLimit:     3,
		NakTimeout:           time.Second,
		NakLimit:             3,
	}

	entry, err := cfg.ToEntry(cfdp.EntityID(5))
	require.NoError(t, err)
	assert.Equal(t, cfdp.EntityID(5), entry.EntityID)
	assert.Equal(t, cfdp.TransmissionModeAcknowledged, entry.DefaultTransmissionMode)
	assert.Equal(t, cfdp.ChecksumCRC32C, entry.DefaultChecksumType)
	assert.Equal(t, uint64(2048), entry.MaxFileSegmentLength)
}

func TestMIBEntryConfig_ToEntryRejectsUnknownTransmissionMode(t *testing.T) {
	t.Parallel()
	cfg := MIBEntryConfig{TransmissionMode: "sideways", ChecksumType: "crc32c"}

	_, err := cfg.ToEntry(cfdp.EntityID(1))
	assert.Error(t, err)
}

func TestMIBEntryConfig_ToEntryRejectsUnknownChecksumType(t *testing.T) {
	t.Parallel()
	cfg := MIBEntryConfig{TransmissionMode: "unacknowledged", ChecksumType: "sha256"}

	_, err := cfg.ToEntry(cfdp.EntityID(1))
	assert.Error(t, err)
}
