package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cfdpgo/internal/cli/apiclient"
	"github.com/marmos91/cfdpgo/internal/cli/prompt"
)

var (
	putDestinationEntityID uint64
	putSourceFilePath      string
	putDestinationFilePath string
	putAcknowledged        bool
	putClosureRequested    bool
)

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Submit a Put Request to a running cfdpd",
	Long: `Submit a Put Request: send a local file to a remote CFDP entity.

Any of --to, --source and --dest left unset is prompted for interactively.

Examples:
  cfdpctl put --to 2 --source /data/report.bin --dest /incoming/report.bin
  cfdpctl put --to 2 --source /data/report.bin --dest /incoming/report.bin --ack`,
	RunE: runPut,
}

func init() {
	putCmd.Flags().Uint64Var(&putDestinationEntityID, "to", 0, "destination entity ID")
	putCmd.Flags().StringVar(&putSourceFilePath, "source", "", "source file path, as seen by cfdpd's filestore")
	putCmd.Flags().StringVar(&putDestinationFilePath, "dest", "", "destination file path")
	putCmd.Flags().BoolVar(&putAcknowledged, "ack", false, "request Class 2 (acknowledged) transmission")
	putCmd.Flags().BoolVar(&putClosureRequested, "closure", false, "request transaction closure under Class 1")
}

func runPut(cmd *cobra.Command, args []string) error {
	var err error

	if putDestinationEntityID == 0 {
		putDestinationEntityID, err = prompt.InputUint64("Destination entity ID", 0)
		if err != nil {
			return err
		}
	}
	if putSourceFilePath == "" {
		putSourceFilePath, err = prompt.InputRequired("Source file path")
		if err != nil {
			return err
		}
	}
	if putDestinationFilePath == "" {
		putDestinationFilePath, err = prompt.InputRequired("Destination file path")
		if err != nil {
			return err
		}
	}

	resp, err := client().SubmitTransaction(apiclient.SubmitTransactionRequest{
		DestinationEntityID: putDestinationEntityID,
		SourceFilePath:      putSourceFilePath,
		DestinationFilePath: putDestinationFilePath,
		Acknowledged:        putAcknowledged,
		ClosureRequested:    putClosureRequested,
	})
	if err != nil {
		return fmt.Errorf("submit transaction: %w", err)
	}

	p, err := printer()
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Transaction submitted: %s", resp.TransactionID))
	return nil
}
