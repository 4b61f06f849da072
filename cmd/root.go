// Package cmd wires the harvester CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edeska",
		Short: "Harvester for Czech municipal bulletin boards.",
		Long: `edeska downloads the documents published on municipal bulletin
boards for a date window, archives them over FTP and emits import
records for the downstream database.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newHarvestCmd())

	return cmd
}

// Execute runs the CLI and reports the process outcome.
func Execute() error {
	return newRootCmd().Execute()
}
