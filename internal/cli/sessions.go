package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easeaico/session-memory/internal/config"
	"github.com/easeaico/session-memory/internal/transcript"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Long: `Sessions lists the recorded transcripts found under the sessions
directory, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		project, _ := cmd.Flags().GetString("project")
		index := transcript.NewIndex(cfg.Sessions.Dir)
		sessions, err := index.ListSessions(project)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %s\n", s.Modified.Format("2006-01-02 15:04"), s.ID, s.Project)
		}
		return nil
	},
}

func init() {
	sessionsCmd.Flags().StringP("project", "p", "", "only list sessions of this project")
}
