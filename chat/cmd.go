// Package chat implements the interactive chat command.
package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/avikale/ragline/chat/session"
	"github.com/avikale/ragline/internal/api"
	"github.com/avikale/ragline/internal/configuration"
	"github.com/avikale/ragline/internal/debug"
)

var log = debug.GetLogger()

// NewCmd instantiates and returns the chat command.
func NewCmd(config *configuration.Config) *cobra.Command {
	var opts struct {
		ChatID string
		New    bool
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive conversation with the RAG backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.New(config.BackendURL, config.RequestTimeout())

			// Resolve the conversation to open.
			var chatID string
			var err error
			switch {
			case opts.New:
				chatID, err = client.NewChat(ctx)
			case opts.ChatID != "":
				chatID = opts.ChatID
				err = client.SetCurrentChatID(ctx, chatID)
			default:
				chatID, err = client.CurrentChatID(ctx)
			}
			cobra.CheckErr(err)

			metadata, err := client.Metadata(ctx, chatID)
			cobra.CheckErr(err)

			// Title-bar context. Neither is load-bearing, so failures
			// degrade to placeholders instead of blocking the session.
			modelName, err := client.SelectedModel(ctx)
			if err != nil {
				log.Warn("fetching selected model", "error", err)
				modelName = "unknown"
			}
			selectedSources, err := client.SelectedSources(ctx)
			if err != nil {
				log.Warn("fetching selected sources", "error", err)
			}

			m, err := session.New(ctx, config, client, chatID, metadata.Name, modelName, len(selectedSources))
			if err != nil {
				return err
			}

			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)

			// Set the program reference for async message sending
			m.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running chat: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ChatID, "id", "", "open a specific conversation")
	cmd.Flags().BoolVarP(&opts.New, "new", "n", false, "start a fresh conversation")
	return cmd
}
