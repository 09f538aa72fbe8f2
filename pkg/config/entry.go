package config

import (
	"fmt"

	"github.com/marmos91/cfdpgo"
)

// ToEntry converts the configured default MIB entry into a cfdp.Entry for
// the given remote entity.
func (c MIBEntryConfig) ToEntry(entityID cfdp.EntityID) (cfdp.Entry, error) {
	mode, err := parseTransmissionMode(c.TransmissionMode)
	if err != nil {
		return cfdp.Entry{}, err
	}
	checksum, err := parseChecksumType(c.ChecksumType)
	if err != nil {
		return cfdp.Entry{}, err
	}
	return cfdp.Entry{
		EntityID:                entityID,
		DefaultTransmissionMode: mode,
		MaxFileSegmentLength:    c.MaxFileSegmentLength.Uint64(),
		DefaultChecksumType:     checksum,
		PositiveAckTimeout:      c.PositiveAckTimeout,
		PositiveAckLimit:        c.PositiveAckLimit,
		NakTimeout:              c.NakTimeout,
		NakLimit:                c.NakLimit,
	}, nil
}

func parseTransmissionMode(s string) (cfdp.TransmissionMode, error) {
	switch s {
	case "acknowledged":
		return cfdp.TransmissionModeAcknowledged, nil
	case "unacknowledged":
		return cfdp.TransmissionModeUnacknowledged, nil
	default:
		return 0, fmt.Errorf("config: unknown transmission mode %q", s)
	}
}

func parseChecksumType(s string) (cfdp.ChecksumType, error) {
	switch s {
	case "modular":
		return cfdp.ChecksumModular, nil
	case "crc32c":
		return cfdp.ChecksumCRC32C, nil
	default:
		return 0, fmt.Errorf("config: unknown checksum type %q", s)
	}
}
