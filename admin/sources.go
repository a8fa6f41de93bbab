// Package admin implements backend-configuration commands: document
// sources and model selection.
package admin

import (
	"github.com/scylladb/go-set/strset"
	"github.com/spf13/cobra"

	"github.com/avikale/ragline/internal/api"
	"github.com/avikale/ragline/internal/cli"
	"github.com/avikale/ragline/internal/configuration"
)

// NewSourcesCmd instantiates and returns the sources command.
func NewSourcesCmd(config *configuration.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List ingested document sources",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			client := newClient(config)

			sources, err := client.Sources(ctx)
			cobra.CheckErr(err)
			selected, err := client.SelectedSources(ctx)
			cobra.CheckErr(err)
			selectedSet := strset.New(selected...)

			cli.Title("Sources (%d, %d selected)", len(sources), len(selected))
			for _, source := range sources {
				if selectedSet.Has(source) {
					cli.ActiveItem("* %s\n", source)
				} else {
					cli.Item("  %s\n", source)
				}
			}
			cli.Separator()
		},
	}
	cmd.AddCommand(newSourcesSelectCmd(config))
	return cmd
}

func newSourcesSelectCmd(config *configuration.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "select [source...]",
		Short: "Choose the sources used for retrieval",
		Long:  "Choose the sources used for retrieval. With no arguments, opens an interactive picker.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			client := newClient(config)

			available, err := client.Sources(ctx)
			cobra.CheckErr(err)
			availableSet := strset.New(available...)

			var selection []string
			if len(args) > 0 {
				unknown := strset.Difference(strset.New(args...), availableSet)
				if !unknown.IsEmpty() {
					cobra.CheckErr(errUnknown{kind: "sources", names: unknown.List()})
				}
				selection = args
			} else {
				current, err := client.SelectedSources(ctx)
				cobra.CheckErr(err)
				selection, err = cli.SelectMulti("Select sources", available, current)
				cobra.CheckErr(err)
			}

			cobra.CheckErr(client.SetSelectedSources(ctx, selection))
			cli.Info("Selected %d sources\n", len(selection))
		},
	}
}

func newClient(config *configuration.Config) *api.Client {
	return api.New(config.BackendURL, config.RequestTimeout())
}
