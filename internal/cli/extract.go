package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [session-id]",
	Short: "Extract structured memory from recorded sessions",
	Long: `Extract analyzes a session transcript and stores what it learned:
incidents, facts, workflows, decisions and gotchas.

Examples:
  # Extract one session
  sessmem extract 3f2c9a1e-07d4-4f7b-9a52-8c1d2e3f4a5b

  # Extract every unprocessed session of a project
  sessmem extract --all --project myapp

  # Re-extract a session that changed
  sessmem extract 3f2c9a1e-07d4-4f7b-9a52-8c1d2e3f4a5b --force`,
	Args: cobra.MaximumNArgs(1),
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

		project, _ := cmd.Flags().GetString("project")
		force, _ := cmd.Flags().GetBool("force")
		all, _ := cmd.Flags().GetBool("all")

		if all {
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			if concurrency <= 0 {
				concurrency = app.cfg.Generate.Concurrency
			}
			result, err := app.pipe.ExtractAll(ctx, project, concurrency, force)
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %d session(s), skipped %d, failed %d\n",
				result.Extracted, result.Skipped, result.Failed)
			for _, err := range result.Errors {
				fmt.Printf("  %v\n", err)
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a session id is required unless --all is set")
		}

		ext, skipped, err := app.pipe.ExtractSession(ctx, args[0], project, force)
		if err != nil {
			return err
		}
		if skipped {
			fmt.Printf("Session %s already extracted, use --force to redo\n", args[0])
			return nil
		}
		fmt.Printf("Extracted session %s (project %s): %d episodic, %d semantic, %d procedural, %d decisions, %d gotchas\n",
			ext.SessionID, ext.Project,
			len(ext.Episodic), len(ext.Semantic), len(ext.Procedural), len(ext.Decisions), len(ext.Gotchas))
		return nil
	},
}

func init() {
	extractCmd.Flags().StringP("project", "p", "", "project name (detected from the transcript location when empty)")
	extractCmd.Flags().Bool("all", false, "extract every session not yet processed")
	extractCmd.Flags().BoolP("force", "f", false, "re-extract even if the session was already processed")
	extractCmd.Flags().IntP("concurrency", "c", 0, "parallel extractions for --all (default from config)")
}
