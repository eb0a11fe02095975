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
		Use:   "list",
		Short: "List observations",
		Run:   runList,
	}

	cmd.Flags().String("type", "", "Filter by observation type")
	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().StringSlice("concepts", nil, "Filter by concepts (any match)")
	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().StringP("session", "s", "", "Filter by session")
	cmd.Flags().Float64("min-importance", 0, "Minimum importance (inclusive)")
	cmd.Flags().Int("since-days", 0, "Only observations from the last N days")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = unlimited)")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	concepts, _ := cmd.Flags().GetStringSlice("concepts")
	project, _ := cmd.Flags().GetString("project")
	session, _ := cmd.Flags().GetString("session")
	minImportance, _ := cmd.Flags().GetFloat64("min-importance")
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

	memories, err := s.List(cmd.Context(), store.ListParams{
		Type:          typ,
		Category:      category,
		Concepts:      concepts,
		Project:       project,
		SessionID:     session,
		MinImportance: minImportance,
		SinceEpoch:    sinceEpoch,
		Limit:         limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
