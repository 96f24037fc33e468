package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <project>",
	Short: "Generate the guidance document and skill files",
	Long: `Generate produces a guidance document, skill files and actionable
tasks from the consolidated project memory. Items below the repetition
threshold are left out; decisions are always kept. When an oracle is
configured the document is verified and regenerated once if the
verification finds errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		bundle, err := app.pipe.Generate(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Generated bundle %s for %s: document %d bytes, %d skill(s), %d task(s)\n",
			bundle.RunID, bundle.Project, len(bundle.Document), len(bundle.Skills), len(bundle.Tasks))
		if bundle.Verification != nil {
			fmt.Printf("Verification: valid=%v score=%d issues=%d\n",
				bundle.Verification.IsValid, bundle.Verification.Score, len(bundle.Verification.Issues))
			for _, issue := range bundle.Verification.Issues {
				fmt.Printf("  [%s/%s] %s\n", issue.Severity, issue.Type, issue.Description)
			}
		}
		return nil
	},
}
