package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cfdpgo/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status <transaction-id>",
	Short: "Poll a transaction's status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := client().GetTransaction(args[0])
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	p, err := printer()
	if err != nil {
		return err
	}
	return p.Print(output.TransactionTable{{
		ID:         status.ID,
		SourceStep: status.SourceStep,
		DestStep:   status.DestStep,
		Terminal:   status.Terminal,
	}})
}
