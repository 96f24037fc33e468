package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <project>",
	Short: "Merge session extractions into the project memory",
	Long: `Consolidate merges all stored extractions for a project into a single
deduplicated memory. Repeated incidents gain occurrence counts, facts seen
in three or more sessions are promoted to high confidence, and later
decisions supersede earlier ones on the same topic.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		mem, err := app.pipe.Consolidate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Consolidated %d session(s) for %s: %d episodic, %d semantic, %d procedural, %d decisions, %d gotchas\n",
			mem.SessionsAnalyzed, mem.Project,
			len(mem.Episodic), len(mem.Semantic), len(mem.Procedural), len(mem.Decisions), len(mem.Gotchas))
		return nil
	},
}
