package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Ranked full-text search over observations",
		Long: "Search observations by relevance. With --file or --concept the query is\n" +
			"omitted and matching is by file path or concept tag instead.",
		Run: runSearch,
	}

	cmd.Flags().String("type", "", "Filter by observation type")
	cmd.Flags().StringP("project", "p", "", "Filter by project")
	cmd.Flags().IntP("limit", "l", 10, "Max results")
	cmd.Flags().String("file", "", "Match observations that read or modified this path")
	cmd.Flags().String("concept", "", "Match observations carrying this concept tag")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")
	file, _ := cmd.Flags().GetString("file")
	concept, _ := cmd.Flags().GetString("concept")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	switch {
	case file != "":
		memories, err := s.SearchByFile(cmd.Context(), file, limit)
		if err != nil {
			exitErr("search by file", err)
		}
		printJSON(memories)
	case concept != "":
		memories, err := s.SearchByConcept(cmd.Context(), concept, limit)
		if err != nil {
			exitErr("search by concept", err)
		}
		printJSON(memories)
	default:
		if len(args) == 0 {
			exitErr("search", fmt.Errorf("a query is required unless --file or --concept is given"))
		}
		memories, err := s.Search(cmd.Context(), store.SearchParams{
			Query:   strings.Join(args, " "),
			Type:    typ,
			Project: project,
			Limit:   limit,
		})
		if err != nil {
			exitErr("search", err)
		}
		printJSON(memories)
	}
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
