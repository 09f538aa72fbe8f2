// Package commands implements cfdpctl's CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/cfdpgo/internal/cli/apiclient"
	"github.com/marmos91/cfdpgo/internal/cli/output"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	serverURL    string
	authToken    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cfdpctl",
	Short: "cfdpctl - operate a cfdpd daemon",
	Long: `cfdpctl drives a running cfdpd daemon's control-plane API: submit
Put Requests, poll transaction status, and inspect MIB entries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "cfdpd control-plane URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "operator bearer token")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")

	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mibCmd)
	rootCmd.AddCommand(versionCmd)
}

func client() *apiclient.Client {
	c := apiclient.New(serverURL)
	if authToken != "" {
		c = c.WithToken(authToken)
	}
	return c
}

func printer() (*output.Printer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(rootCmd.OutOrStdout(), format, true), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("cfdpctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
