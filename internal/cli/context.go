package cli

import (
	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Assemble context for injection at session start",
		Long:  "Return the index view of recent observations plus the latest summary, cheap enough to inject into every session.",
		Run:   runContext,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().IntP("limit", "l", 50, "Max observations")
	cmd.Flags().Int("days", 90, "How many days back to look")
	cmd.Flags().Bool("summaries", true, "Include the most recent summary")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")
	days, _ := cmd.Flags().GetInt("days")
	summaries, _ := cmd.Flags().GetBool("summaries")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.ContextForSession(cmd.Context(), store.ContextParams{
		Project:          project,
		Limit:            limit,
		Days:             days,
		IncludeSummaries: summaries,
	})
	if err != nil {
		exitErr("context", err)
	}

	printJSON(result)
}
