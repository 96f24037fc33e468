package cli

import (
	"github.com/spf13/cobra"

	"github.com/easeaico/session-memory/internal/assist"
	"github.com/easeaico/session-memory/internal/llm"
)

var assistCmd = &cobra.Command{
	Use:   "assist <project> [launcher args...]",
	Short: "Start an interactive assistant over the project memory",
	Long: `Assist starts an interactive agent that answers questions using the
stored project memory. Arguments after the project name are passed to the
agent runtime.

Example:
  sessmem assist myapp`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		if err := app.requireOracle(); err != nil {
			return err
		}

		model := app.cfg.Oracle.Model
		if model == "" {
			model = llm.DefaultModel
		}

		return assist.Run(ctx, assist.Config{
			Store:    app.store,
			Embedder: app.oracle,
			APIKey:   app.cfg.Oracle.APIKey,
			Model:    model,
			Project:  args[0],
		}, args[1:])
	},
}
