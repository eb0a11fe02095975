package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "List the cheap index view of observations",
		Long:  "List id/type/title/subtitle/concepts with a token estimate per observation, for cost-aware retrieval.",
		Run:   runIndex,
	}

	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().Int("since-days", 0, "Only observations from the last N days")
	cmd.Flags().IntP("limit", "l", 50, "Max results")

	RootCmd.AddCommand(cmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	sinceDays, _ := cmd.Flags().GetInt("since-days")
	limit, _ := cmd.Flags().GetInt("limit")

	var sinceEpoch int64
	if sinceDays > 0 {
		sinceEpoch = time.Now().UTC().Add(-time.Duration(sinceDays) * 24 * time.Hour).UnixMilli()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	index, err := s.ListIndex(cmd.Context(), store.IndexParams{
		Project:    project,
		SinceEpoch: sinceEpoch,
		Limit:      limit,
	})
	if err != nil {
		exitErr("index", err)
	}

	b, _ := json.MarshalIndent(index, "", "  ")
	fmt.Println(string(b))
}
