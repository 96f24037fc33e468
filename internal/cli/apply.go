package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easeaico/session-memory/internal/pipeline"
)

var applyCmd = &cobra.Command{
	Use:   "apply <project>",
	Short: "Write the latest generated bundle into a project directory",
	Long: `Apply copies the most recently generated guidance document and skill
files into the target directory. An existing document is backed up with a
timestamped suffix before being replaced.

Examples:
  sessmem apply myapp --target ~/code/myapp
  sessmem apply myapp --target ~/code/myapp --doc CONTRIBUTING-AI.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		target, _ := cmd.Flags().GetString("target")
		if target == "" {
			return fmt.Errorf("--target directory is required")
		}
		docName, _ := cmd.Flags().GetString("doc")
		if docName == "" {
			docName = app.cfg.Generate.DocumentName
		}

		result, err := app.pipe.Apply(ctx, args[0], target, docName)
		if err != nil {
			return err
		}
		for _, path := range result.Copied {
			fmt.Printf("wrote %s\n", path)
		}
		if result.Backup != "" {
			fmt.Printf("previous document backed up to %s\n", result.Backup)
		}
		return nil
	},
}

func init() {
	applyCmd.Flags().StringP("target", "t", "", "project directory to write into")
	applyCmd.Flags().String("doc", "", "document file name (default "+pipeline.DefaultDocumentName+")")
}
