package store

import (
	"context"
	"testing"

	"github.com/kyleliao/agent-recall/internal/model"
)

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.CreateSession(ctx, "sess-1", "api", "fix the login bug")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Status != model.StatusActive {
		t.Errorf("status = %q, want active", sess.Status)
	}
	if sess.PromptCount != 1 {
		t.Errorf("prompt_count = %d, want 1", sess.PromptCount)
	}
	if sess.StartedAtEpoch == 0 {
		t.Error("expected non-zero started_at_epoch")
	}

	if _, err := s.CreateSession(ctx, "", "api", "x"); err == nil {
		t.Error("expected error for empty session id")
	}
}

func TestCreateSession_Continuation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, _ := s.CreateSession(ctx, "sess-1", "api", "first prompt")
	second, err := s.CreateSession(ctx, "sess-1", "api", "second prompt")
	if err != nil {
		t.Fatalf("continuation: %v", err)
	}
	if second.ID != first.ID {
		t.Error("continuation created a new row")
	}
	if second.PromptCount != 2 {
		t.Errorf("prompt_count = %d, want 2", second.PromptCount)
	}
	if second.UserPrompt != "second prompt" {
		t.Errorf("latest prompt = %q", second.UserPrompt)
	}

	got, _ := s.GetSession(ctx, "sess-1")
	if got.PromptCount != 2 {
		t.Errorf("persisted prompt_count = %d, want 2", got.PromptCount)
	}
	if got.UserPrompt != "second prompt" {
		t.Errorf("persisted prompt = %q", got.UserPrompt)
	}
}

func TestCompleteSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateSession(ctx, "sess-1", "api", "x")

	ok, err := s.CompleteSession(ctx, "sess-1", "failed")
	if err != nil || !ok {
		t.Fatalf("complete: ok=%v err=%v", ok, err)
	}
	got, _ := s.GetSession(ctx, "sess-1")
	if got.Status != model.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got.CompletedAtEpoch == 0 {
		t.Error("expected non-zero completed_at_epoch")
	}

	// Unknown status normalizes to completed.
	s.CreateSession(ctx, "sess-2", "api", "y")
	s.CompleteSession(ctx, "sess-2", "bogus")
	got, _ = s.GetSession(ctx, "sess-2")
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}

	ok, err = s.CompleteSession(ctx, "no-such", "completed")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected false for missing session")
	}
}

func TestGetSessionMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.GetSession(ctx, "no-such")
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Error("expected nil for missing session")
	}
}

func TestGetRecentSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateSession(ctx, "sess-1", "api", "a")
	s.CreateSession(ctx, "sess-2", "web", "b")
	s.CreateSession(ctx, "sess-3", "api", "c")

	all, err := s.GetRecentSessions(ctx, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}

	api, _ := s.GetRecentSessions(ctx, 10, "api")
	if len(api) != 2 {
		t.Errorf("expected 2 api sessions, got %d", len(api))
	}

	capped, _ := s.GetRecentSessions(ctx, 1, "")
	if len(capped) != 1 {
		t.Errorf("expected limit to apply, got %d", len(capped))
	}
}

func TestUserPrompts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.CreateSession(ctx, "sess-1", "api", "x")

	p, err := s.AddUserPrompt(ctx, "sess-1", 1, "investigate the flaky websocket test")
	if err != nil {
		t.Fatalf("add prompt: %v", err)
	}
	if p.ID == "" || p.CreatedAtEpoch == 0 {
		t.Error("expected id and epoch to be set")
	}
	s.AddUserPrompt(ctx, "sess-1", 2, "now fix the linter warnings")

	if _, err := s.AddUserPrompt(ctx, "sess-1", 3, ""); err == nil {
		t.Error("expected error for empty prompt text")
	}

	results, err := s.SearchPrompts(ctx, "websocket", 10)
	if err != nil {
		t.Fatalf("search prompts: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1, got %d", len(results))
	}
	if results[0].PromptNumber != 1 {
		t.Errorf("wrong prompt matched: %+v", results[0])
	}
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.AddSummary(ctx, SummaryParams{}); err == nil {
		t.Error("expected error for missing session id")
	}

	sum, err := s.AddSummary(ctx, SummaryParams{
		SessionID:    "sess-1",
		Project:      "api",
		Request:      "add rate limiting",
		Investigated: "looked at the middleware chain",
		Learned:      "the limiter must sit before auth",
		Completed:    "token bucket middleware",
		NextSteps:    "wire the redis backend",
		FilesRead:    []string{"internal/mw/auth.go"},
		FilesEdited:  []string{"internal/mw/limit.go"},
	})
	if err != nil {
		t.Fatalf("add summary: %v", err)
	}
	if sum.ID == "" || sum.CreatedAtEpoch == 0 {
		t.Error("expected id and epoch to be set")
	}

	s.AddSummary(ctx, SummaryParams{SessionID: "sess-2", Project: "web", Request: "style pass"})

	all, err := s.GetSummaries(ctx, "", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}

	bySession, _ := s.GetSummaries(ctx, "sess-1", "", 10)
	if len(bySession) != 1 || bySession[0].Request != "add rate limiting" {
		t.Errorf("session filter wrong: %+v", bySession)
	}

	byProject, _ := s.GetSummaries(ctx, "", "web", 10)
	if len(byProject) != 1 || byProject[0].SessionID != "sess-2" {
		t.Errorf("project filter wrong: %+v", byProject)
	}

	got := bySession[0]
	if len(got.FilesEdited) != 1 || got.FilesEdited[0] != "internal/mw/limit.go" {
		t.Errorf("files_edited round-trip wrong: %v", got.FilesEdited)
	}
}

func TestSearchSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.AddSummary(ctx, SummaryParams{SessionID: "sess-1", Learned: "sqlite locks the whole file"})
	s.AddSummary(ctx, SummaryParams{SessionID: "sess-2", NextSteps: "benchmark the parser"})

	results, err := s.SearchSummaries(ctx, "sqlite", 10)
	if err != nil {
		t.Fatalf("search summaries: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1, got %d", len(results))
	}
	if results[0].SessionID != "sess-1" {
		t.Errorf("wrong summary matched: %+v", results[0])
	}

	// Fields outside the narrative set are reachable too.
	results, _ = s.SearchSummaries(ctx, "benchmark", 10)
	if len(results) != 1 || results[0].SessionID != "sess-2" {
		t.Errorf("next_steps not indexed: %+v", results)
	}
}
