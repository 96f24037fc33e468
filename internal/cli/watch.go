package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/session-memory/internal/transcript"
	"github.com/easeaico/session-memory/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the sessions directory and extract sessions as they settle",
	Long: `Watch monitors the sessions directory for transcript changes and
extracts each session once it has been quiet for the debounce interval.
Runs until interrupted.`,
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

		debounce, _ := cmd.Flags().GetDuration("debounce")
		root := app.cfg.Sessions.Dir
		if root == "" {
			root = transcript.DefaultRoot()
		}

		watcher := watch.New(root, debounce, app.pipe, app.logger)
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()

		fmt.Printf("watching %s (debounce %s), press Ctrl-C to stop\n", root, debounce)
		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", 30*time.Second, "quiet period before a changed session is extracted")
}
