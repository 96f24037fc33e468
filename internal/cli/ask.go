package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <project> <question...>",
	Short: "Ask a question against the project memory",
	Long: `Ask answers a one-off question using the consolidated memory as
context.

Examples:
  sessmem ask myapp "how do we run the integration tests"
  sessmem ask myapp why was postgres chosen over mysql`,
	Args: cobra.MinimumNArgs(2),
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

		answer, err := app.pipe.Ask(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}
