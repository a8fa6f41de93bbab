package main

import (
	"github.com/spf13/cobra"

	"github.com/avikale/ragline/admin"
	"github.com/avikale/ragline/chat"
	"github.com/avikale/ragline/chats"
	"github.com/avikale/ragline/internal/configuration"
)

const configFilepath = "~/.config/ragline/config.json"

var rootCmd = &cobra.Command{
	Use:     "ragline",
	Short:   "A terminal client for a streaming RAG chat backend",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(chat.NewCmd(config))
	rootCmd.AddCommand(chats.NewCmd(config))
	rootCmd.AddCommand(admin.NewSourcesCmd(config))
	rootCmd.AddCommand(admin.NewModelsCmd(config))
	rootCmd.Execute()
}
