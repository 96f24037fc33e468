package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var recallCmd = &cobra.Command{
	Use:   "recall <project> <query...>",
	Short: "Search the project memory by similarity",
	Long: `Recall searches the indexed memory items with an embedding of the
query and prints the closest matches.

Examples:
  sessmem recall myapp "connection refused during tests"
  sessmem recall myapp migration workflow --limit 3`,
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

		limit, _ := cmd.Flags().GetInt("limit")
		hits, err := app.pipe.Recall(ctx, args[0], strings.Join(args[1:], " "), limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, _ := json.MarshalIndent(hits, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		if len(hits) == 0 {
			fmt.Println("No matching memory items.")
			return nil
		}
		for _, hit := range hits {
			fmt.Printf("[%s] %.0f%% %s\n", hit.Kind, hit.Similarity*100, hit.Text)
			if hit.Detail != "" {
				fmt.Printf("    %s\n", hit.Detail)
			}
		}
		return nil
	},
}

func init() {
	recallCmd.Flags().IntP("limit", "l", 10, "maximum number of results")
	recallCmd.Flags().Bool("json", false, "output as JSON")
}
