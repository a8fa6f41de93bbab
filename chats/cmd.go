// Package chats implements the conversation-management commands.
package chats

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avikale/ragline/internal/api"
	"github.com/avikale/ragline/internal/cli"
	"github.com/avikale/ragline/internal/configuration"
)

// NewCmd instantiates and returns the chats command.
func NewCmd(config *configuration.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage conversations",
	}
	cmd.AddCommand(
		newListCmd(config),
		newNewCmd(config),
		newRenameCmd(config),
		newDeleteCmd(config),
		newClearCmd(config),
	)
	return cmd
}

func newClient(config *configuration.Config) *api.Client {
	return api.New(config.BackendURL, config.RequestTimeout())
}

func newListCmd(config *configuration.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all conversations",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			client := newClient(config)

			chatIDs, err := client.ListChats(ctx)
			cobra.CheckErr(err)
			currentID, err := client.CurrentChatID(ctx)
			cobra.CheckErr(err)

			cli.Title("Conversations (%d)", len(chatIDs))
			for _, chatID := range chatIDs {
				metadata, err := client.Metadata(ctx, chatID)
				cobra.CheckErr(err)
				if chatID == currentID {
					cli.ActiveItem("* %s  %s\n", chatID, metadata.Name)
				} else {
					cli.Item("  %s  %s\n", chatID, metadata.Name)
				}
			}
			cli.Separator()
		},
	}
}

func newNewCmd(config *configuration.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a conversation and make it current",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient(config)
			chatID, err := client.NewChat(cmd.Context())
			cobra.CheckErr(err)
			cli.Info("Created conversation %s\n", chatID)
		},
	}
}

func newRenameCmd(config *configuration.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <chat-id> <name>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient(config)
			chatID := args[0]
			name := strings.Join(args[1:], " ")
			cobra.CheckErr(client.RenameChat(cmd.Context(), chatID, name))
			cli.Info("Renamed %s to %q\n", chatID, name)
		},
	}
}

func newDeleteCmd(config *configuration.Config) *cobra.Command {
	var opts struct {
		Force bool
	}
	cmd := &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a conversation and its messages",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient(config)
			chatID := args[0]
			if !opts.Force && !cli.QueryUser(fmt.Sprintf("Delete conversation %s?", chatID)) {
				return
			}
			cobra.CheckErr(client.DeleteChat(cmd.Context(), chatID))
			cli.Info("Deleted conversation %s\n", chatID)
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

func newClearCmd(config *configuration.Config) *cobra.Command {
	var opts struct {
		Force bool
	}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every conversation",
		Run: func(cmd *cobra.Command, args []string) {
			client := newClient(config)
			if !opts.Force && !cli.QueryUser("Delete ALL conversations?") {
				return
			}
			newChatID, cleared, err := client.ClearChats(cmd.Context())
			cobra.CheckErr(err)
			cli.Info("Cleared %d conversations; new conversation %s\n", cleared, newChatID)
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}
