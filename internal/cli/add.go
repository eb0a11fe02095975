package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/model"
	"github.com/kyleliao/agent-recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store an observation",
		Long:  "Store an observation. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().String("type", model.TypeChange, "Observation type: bugfix, feature, refactor, change, discovery, decision")
	cmd.Flags().String("title", "", "Short title (derived from content if empty)")
	cmd.Flags().String("subtitle", "", "One sentence explanation")
	cmd.Flags().StringSlice("facts", nil, "Concise self-contained facts")
	cmd.Flags().StringSlice("concepts", nil, "Knowledge tags ("+strings.Join(model.KnownConcepts, ", ")+")")
	cmd.Flags().StringSlice("files-read", nil, "Files read during this observation")
	cmd.Flags().StringSlice("files-modified", nil, "Files modified")
	cmd.Flags().StringP("session", "s", "", "Session identifier")
	cmd.Flags().StringP("project", "p", "", "Project name for filtering")
	cmd.Flags().String("category", "general", "Legacy category")
	cmd.Flags().Float64P("importance", "i", 0.5, "Importance score in [0,1]")
	cmd.Flags().StringSliceP("tags", "t", nil, "Tags for filtering")
	cmd.Flags().String("meta", "", "JSON metadata object")
	cmd.Flags().Int("tokens", 0, "Tokens spent discovering this")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	typ, _ := cmd.Flags().GetString("type")
	title, _ := cmd.Flags().GetString("title")
	subtitle, _ := cmd.Flags().GetString("subtitle")
	facts, _ := cmd.Flags().GetStringSlice("facts")
	concepts, _ := cmd.Flags().GetStringSlice("concepts")
	filesRead, _ := cmd.Flags().GetStringSlice("files-read")
	filesModified, _ := cmd.Flags().GetStringSlice("files-modified")
	session, _ := cmd.Flags().GetString("session")
	project, _ := cmd.Flags().GetString("project")
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetFloat64("importance")
	tags, _ := cmd.Flags().GetStringSlice("tags")
	metaStr, _ := cmd.Flags().GetString("meta")
	tokens, _ := cmd.Flags().GetInt("tokens")

	var metadata map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &metadata); err != nil {
			exitErr("parse meta", err)
		}
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.Add(cmd.Context(), store.AddParams{
		Content:         strings.TrimSpace(content),
		Type:            typ,
		Title:           title,
		Subtitle:        subtitle,
		Facts:           facts,
		Concepts:        concepts,
		FilesRead:       filesRead,
		FilesModified:   filesModified,
		SessionID:       session,
		Project:         project,
		Category:        category,
		Importance:      importance,
		Tags:            tags,
		Metadata:        metadata,
		DiscoveryTokens: tokens,
	})
	if err != nil {
		exitErr("add", err)
	}

	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}
