package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cfdpgo/internal/cli/output"
)

var mibCmd = &cobra.Command{
	Use:   "mib <entity-id>",
	Short: "Inspect a remote entity's MIB entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIB,
}

func runMIB(cmd *cobra.Command, args []string) error {
	var entityID uint64
	if _, err := fmt.Sscanf(args[0], "%d", &entityID); err != nil {
		return fmt.Errorf("invalid entity ID %q: %w", args[0], err)
	}

	entry, err := client().GetMIBEntry(entityID)
	if err != nil {
		return fmt.Errorf("get MIB entry: %w", err)
	}

	p, err := printer()
	if err != nil {
		return err
	}
	return p.Print(output.MIBEntryTable{{
		EntityID:                entry.EntityID,
		DefaultTransmissionMode: entry.DefaultTransmissionMode,
		MaxFileSegmentLength:    entry.MaxFileSegmentLength,
		DefaultChecksumType:     entry.DefaultChecksumType,
		PositiveAckTimeout:      entry.PositiveAckTimeout,
		PositiveAckLimit:        entry.PositiveAckLimit,
		NakTimeout:              entry.NakTimeout,
		NakLimit:                entry.NakLimit,
	}})
}
