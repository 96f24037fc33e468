// Package cli implements the sessmem command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	cfgFile  string
	verbose  bool
	noVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "sessmem",
	Short: "Turn coding session transcripts into durable project memory",
	Long: `sessmem distills recorded coding agent sessions into structured
project memory: recurring errors with their fixes, conventions, workflows,
decisions and gotchas. From that memory it generates a guidance document
and skill files that future sessions can start from.

The usual flow is extract, consolidate, generate, apply.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, overridden by SESSMEM_* env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noVerify, "no-verify", false, "skip document verification after generation")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(assistCmd)
}
