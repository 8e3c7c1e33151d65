package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/aretw0/lendflow/internal/config"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lendflow",
	Short: "lendflow is a conversational loan assistant",
	Long: `lendflow walks an applicant from a first "hi" through an offer, identity and
credit checks, document collection and a sanction letter.

Settings come from lendflow.yaml, a .env file and LENDFLOW_ environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the config file (default ./lendflow.yaml if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level")
}

// buildApp loads configuration and wires the assistant for a command.
func buildApp(cmd *cobra.Command, bo cli.BuildOptions) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	logger := logging.FromConfig(cfg.Log.Level, cfg.Log.Format)
	return cli.Build(cfg, logger, bo)
}
