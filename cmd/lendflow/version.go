package main

import (
	"fmt"

	"github.com/aretw0/lendflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lendflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lendflow version %s\n", lendflow.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
