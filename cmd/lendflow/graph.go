package main

import (
	"context"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [session-id]",
	Short: "Export the conversation graph",
	Long: `Outputs a Mermaid diagram (graph TD) of the conversation stages and their
transitions. Given a session ID, the stages it visited are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()

		var id string
		if len(args) > 0 {
			id = args[0]
		}
		return cli.PrintGraph(cmd.Context(), app, cmd.OutOrStdout(), id)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
