// Package commands implements the cfdpd daemon's CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "cfdpd",
	Short: "cfdpd - a CFDP (CCSDS 727.0-B-5) entity daemon",
	Long: `cfdpd runs a CFDP Source Handler and Destination Handler for one
local entity, relaying PDUs over an in-process loopback link, and exposes
a Prometheus metrics endpoint and a REST control plane for operators.

Use "cfdpd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./cfdpd.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("cfdpd %s (commit: %s, built: %s)\n", Version, Commit, Date)
		return nil
	},
}
