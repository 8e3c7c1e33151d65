package main

import (
	"context"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()
		status, _ := cmd.Flags().GetString("status")
		return cli.ListSessions(cmd.Context(), app, cmd.OutOrStdout(), domain.ConversationStatus(status))
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the state of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()
		return cli.InspectSession(cmd.Context(), app, cmd.OutOrStdout(), args[0])
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Abandon and delete a session",
	Long:  `Abandons the session and deletes it from the store. Its conversation log is kept.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()
		return cli.RemoveSession(cmd.Context(), app, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd, sessionInspectCmd, sessionRmCmd)
	sessionLsCmd.Flags().String("status", "", "Only list sessions in this status (active, completed, abandoned)")
}
