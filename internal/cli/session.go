package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleliao/agent-recall/internal/model"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Session tracking",
	}

	beginCmd := &cobra.Command{
		Use:   "begin [session-id]",
		Short: "Start or continue a session",
		Long:  "Start a session, or continue one: repeating an id increments its prompt count.",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionBegin,
	}
	beginCmd.Flags().StringP("project", "p", "", "Project name")
	beginCmd.Flags().String("prompt", "", "Latest user prompt")

	endCmd := &cobra.Command{
		Use:   "end [session-id]",
		Short: "Mark a session as finished",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionEnd,
	}
	endCmd.Flags().String("status", model.StatusCompleted, "Final status: completed or failed")

	showCmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionShow,
	}

	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent sessions",
		Run:   runSessionRecent,
	}
	recentCmd.Flags().StringP("project", "p", "", "Filter by project")
	recentCmd.Flags().IntP("limit", "l", 10, "Max results")

	sessionCmd.AddCommand(beginCmd, endCmd, showCmd, recentCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionBegin(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	prompt, _ := cmd.Flags().GetString("prompt")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sess, err := s.CreateSession(cmd.Context(), args[0], project, strings.TrimSpace(prompt))
	if err != nil {
		exitErr("session begin", err)
	}

	printJSON(sess)
}

func runSessionEnd(cmd *cobra.Command, args []string) {
	status, _ := cmd.Flags().GetString("status")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ok, err := s.CompleteSession(cmd.Context(), args[0], status)
	if err != nil {
		exitErr("session end", err)
	}

	fmt.Printf(`{"ok":%t,"session_id":%q}`+"\n", ok, args[0])
}

func runSessionShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sess, err := s.GetSession(cmd.Context(), args[0])
	if err != nil {
		exitErr("session show", err)
	}
	if sess == nil {
		fmt.Fprintf(os.Stderr, "not found: %s\n", args[0])
		os.Exit(1)
	}

	printJSON(sess)
}

func runSessionRecent(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sessions, err := s.GetRecentSessions(cmd.Context(), limit, project)
	if err != nil {
		exitErr("session recent", err)
	}

	printJSON(sessions)
}
