package cli

import (
	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Observations and summaries around a point in time",
		Long:  "Return full records created within a symmetric window around a center point (default: now).",
		Run:   runTimeline,
	}

	cmd.Flags().Int64("center", 0, "Center point in epoch milliseconds (0 = now)")
	cmd.Flags().Int("window-hours", 24, "Hours before and after the center")
	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().IntP("limit", "l", 50, "Max items per list")

	RootCmd.AddCommand(cmd)
}

func runTimeline(cmd *cobra.Command, args []string) {
	center, _ := cmd.Flags().GetInt64("center")
	windowHours, _ := cmd.Flags().GetInt("window-hours")
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.Timeline(cmd.Context(), store.TimelineParams{
		CenterEpoch: center,
		WindowHours: windowHours,
		Project:     project,
		Limit:       limit,
	})
	if err != nil {
		exitErr("timeline", err)
	}

	printJSON(result)
}
