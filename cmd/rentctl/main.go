package main

import (
	"os"

	"github.com/rentdesk/rentdesk/cmd/rentctl/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rentctl",
		Short:         "Operator tools for rentdesk",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.UserCmd())
	rootCmd.AddCommand(cmd.PropertyCmd())
	rootCmd.AddCommand(cmd.ReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
