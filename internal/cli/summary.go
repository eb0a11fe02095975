package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Session progress summaries",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a session summary",
		Long:  "Record an append-only summary of a session's progress.",
		Run:   runSummaryAdd,
	}
	addCmd.Flags().StringP("session", "s", "", "Session identifier (required)")
	addCmd.Flags().StringP("project", "p", "", "Project name")
	addCmd.Flags().String("request", "", "What the user asked")
	addCmd.Flags().String("investigated", "", "What was explored")
	addCmd.Flags().String("learned", "", "Insights gained")
	addCmd.Flags().String("completed", "", "Work done")
	addCmd.Flags().String("next-steps", "", "Current trajectory")
	addCmd.Flags().String("notes", "", "Additional observations")
	addCmd.Flags().StringSlice("files-read", nil, "Files read")
	addCmd.Flags().StringSlice("files-edited", nil, "Files edited")
	addCmd.Flags().Int("tokens", 0, "Tokens spent this session")
	addCmd.MarkFlagRequired("session")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List summaries, newest first",
		Run:   runSummaryList,
	}
	listCmd.Flags().StringP("session", "s", "", "Filter by session")
	listCmd.Flags().StringP("project", "p", "", "Filter by project")
	listCmd.Flags().IntP("limit", "l", 10, "Max results")

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search summaries",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSummarySearch,
	}
	searchCmd.Flags().IntP("limit", "l", 10, "Max results")

	summaryCmd.AddCommand(addCmd, listCmd, searchCmd)
	RootCmd.AddCommand(summaryCmd)
}

func runSummaryAdd(cmd *cobra.Command, args []string) {
	str := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	filesRead, _ := cmd.Flags().GetStringSlice("files-read")
	filesEdited, _ := cmd.Flags().GetStringSlice("files-edited")
	tokens, _ := cmd.Flags().GetInt("tokens")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sum, err := s.AddSummary(cmd.Context(), store.SummaryParams{
		SessionID:       str("session"),
		Project:         str("project"),
		Request:         str("request"),
		Investigated:    str("investigated"),
		Learned:         str("learned"),
		Completed:       str("completed"),
		NextSteps:       str("next-steps"),
		Notes:           str("notes"),
		FilesRead:       filesRead,
		FilesEdited:     filesEdited,
		DiscoveryTokens: tokens,
	})
	if err != nil {
		exitErr("summary add", err)
	}

	printJSON(sum)
}

func runSummaryList(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	summaries, err := s.GetSummaries(cmd.Context(), session, project, limit)
	if err != nil {
		exitErr("summary list", err)
	}

	printJSON(summaries)
}

func runSummarySearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	summaries, err := s.SearchSummaries(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		exitErr("summary search", err)
	}

	printJSON(summaries)
}
