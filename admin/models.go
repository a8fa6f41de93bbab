package admin

import (
	"fmt"
	"strings"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/cobra"

	"github.com/avikale/ragline/internal/cli"
	"github.com/avikale/ragline/internal/configuration"
)

// errUnknown reports names that the backend does not serve.
type errUnknown struct {
	kind  string
	names []string
}

func (e errUnknown) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.kind, strings.Join(e.names, ", "))
}

// NewModelsCmd instantiates and returns the models command.
func NewModelsCmd(config *configuration.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			client := newClient(config)

			models, err := client.AvailableModels(ctx)
			cobra.CheckErr(err)
			selected, err := client.SelectedModel(ctx)
			cobra.CheckErr(err)

			cli.Title("Models (%d)", len(models))
			for _, model := range models {
				if model == selected {
					cli.ActiveItem("* %s\n", model)
				} else {
					cli.Item("  %s\n", model)
				}
			}
			cli.Separator()
		},
	}
	cmd.AddCommand(newModelsSelectCmd(config))
	return cmd
}

func newModelsSelectCmd(config *configuration.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "select [model]",
		Short: "Switch the backend to a model",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			client := newClient(config)

			available, err := client.AvailableModels(ctx)
			cobra.CheckErr(err)

			var model string
			if len(args) == 1 {
				model = args[0]
				if !strset.New(available...).Has(model) {
					cobra.CheckErr(errUnknown{kind: "model", names: []string{model}})
				}
			} else {
				current, err := client.SelectedModel(ctx)
				cobra.CheckErr(err)
				model, err = cli.SelectOne("Select a model", available, current)
				cobra.CheckErr(err)
			}

			cobra.CheckErr(client.SetSelectedModel(ctx, model))
			cli.Info("Selected model %s\n", model)
		},
	}
}
