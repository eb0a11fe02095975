package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Searchable user prompt history",
	}

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Record a user prompt",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPromptAdd,
	}
	addCmd.Flags().StringP("session", "s", "", "Session identifier (required)")
	addCmd.Flags().IntP("number", "n", 1, "Prompt sequence number within the session")
	addCmd.MarkFlagRequired("session")

	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search prompt history",
		Args:  cobra.MinimumNArgs(1),
		Run:   runPromptSearch,
	}
	searchCmd.Flags().IntP("limit", "l", 10, "Max results")

	promptCmd.AddCommand(addCmd, searchCmd)
	RootCmd.AddCommand(promptCmd)
}

func runPromptAdd(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	number, _ := cmd.Flags().GetInt("number")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.AddUserPrompt(cmd.Context(), session, number, strings.Join(args, " "))
	if err != nil {
		exitErr("prompt add", err)
	}

	printJSON(p)
}

func runPromptSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	prompts, err := s.SearchPrompts(cmd.Context(), strings.Join(args, " "), limit)
	if err != nil {
		exitErr("prompt search", err)
	}

	printJSON(prompts)
}
