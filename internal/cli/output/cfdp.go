package output

import "fmt"

// TransactionRow renders one transaction's status for `cfdpctl status`.
type TransactionRow struct {
	ID         string `json:"id" yaml:"id"`
	SourceStep string `json:"source_step,omitempty" yaml:"source_step,omitempty"`
	DestStep   string `json:"dest_step,omitempty" yaml:"dest_step,omitempty"`
	Terminal   bool   `json:"terminal" yaml:"terminal"`
}

// TransactionTable adapts a slice of TransactionRow to TableRenderer.
type TransactionTable []TransactionRow

func (t TransactionTable) Headers() []string {
	return []string{"ID", "SOURCE STEP", "DEST STEP", "TERMINAL"}
}

func (t TransactionTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, row := range t {
		rows[i] = []string{row.ID, row.SourceStep, row.DestStep, fmt.Sprintf("%t", row.Terminal)}
	}
	return rows
}

// MIBEntryRow renders one remote entity's MIB entry for `cfdpctl mib`.
type MIBEntryRow struct {
	EntityID                uint64 `json:"entity_id" yaml:"entity_id"`
	DefaultTransmissionMode string `json:"default_transmission_mode" yaml:"default_transmission_mode"`
	MaxFileSegmentLength    uint64 `json:"max_file_segment_length" yaml:"max_file_segment_length"`
	DefaultChecksumType     string `json:"default_checksum_type" yaml:"default_checksum_type"`
	PositiveAckTimeout      string `json:"positive_ack_timeout" yaml:"positive_ack_timeout"`
	PositiveAckLimit        int    `json:"positive_ack_limit" yaml:"positive_ack_limit"`
	NakTimeout              string `json:"nak_timeout" yaml:"nak_timeout"`
	NakLimit                int    `json:"nak_limit" yaml:"nak_limit"`
}

// MIBEntryTable adapts a slice of MIBEntryRow to TableRenderer.
type MIBEntryTable []MIBEntryRow

func (t MIBEntryTable) Headers() []string {
	return []string{"ENTITY", "MODE", "MAX SEGMENT", "CHECKSUM", "ACK TIMEOUT", "ACK LIMIT", "NAK TIMEOUT", "NAK LIMIT"}
}

func (t MIBEntryTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, row := range t {
		rows[i] = []string{
			fmt.Sprintf("%d", row.EntityID),
			row.DefaultTransmissionMode,
			fmt.Sprintf("%d", row.MaxFileSegmentLength),
			row.DefaultChecksumType,
			row.PositiveAckTimeout,
			fmt.Sprintf("%d", row.PositiveAckLimit),
			row.NakTimeout,
			fmt.Sprintf("%d", row.NakLimit),
		}
	}
	return rows
}
