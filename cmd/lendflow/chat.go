package main

import (
	"context"

	"github.com/aretw0/lendflow/internal/cli"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the loan assistant in the terminal",
	Long: `Starts an interactive conversation. Pass --customer to sign in as a known
customer (id or email), or --session to resume an earlier conversation.

Upload documents with /upload <type> <path>. Type exit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd, cli.BuildOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.Background()) }()

		opts := cli.ChatOptions{}
		opts.Customer, _ = cmd.Flags().GetString("customer")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.In = cmd.InOrStdin()

		_, err = cli.RunChat(cmd.Context(), app, opts)
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("customer", "c", "", "Customer id or email (empty chats as a guest)")
	chatCmd.Flags().StringP("session", "s", "", "Resume an existing session")
	chatCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no prompts)")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	// Chat is the default when no command is given.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
