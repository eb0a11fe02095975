package store

import (
	"context"
	"testing"
)

func TestSearch_Basic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "the websocket handshake needs an origin header", Project: "api"})
	s.Add(ctx, AddParams{Content: "refactored the template renderer", Project: "web"})
	s.Add(ctx, AddParams{Content: "database pool exhaustion under load", Project: "api"})

	results, err := s.Search(ctx, SearchParams{Query: "websocket"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Content != "the websocket handshake needs an origin header" {
		t.Errorf("wrong record first: %q", results[0].Content)
	}

	results, err = s.Search(ctx, SearchParams{Query: "xyz-nonexistent-token"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected 0 results, got %d", len(results))
	}
}

func TestSearch_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "fixed the retry logic", Type: "bugfix", Project: "api"})
	s.Add(ctx, AddParams{Content: "added retry backoff", Type: "feature", Project: "api"})
	s.Add(ctx, AddParams{Content: "retry docs updated", Type: "change", Project: "web"})

	results, _ := s.Search(ctx, SearchParams{Query: "retry", Type: "bugfix"})
	if len(results) != 1 {
		t.Errorf("expected 1 bugfix result, got %d", len(results))
	}

	results, _ = s.Search(ctx, SearchParams{Query: "retry", Project: "api"})
	if len(results) != 2 {
		t.Errorf("expected 2 api results, got %d", len(results))
	}
}

func TestSearch_TitleAndFacts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{
		Content: "details in the narrative",
		Title:   "connection pooling",
		Facts:   []string{"pgbouncer sits in front of postgres"},
	})

	if results, _ := s.Search(ctx, SearchParams{Query: "pooling"}); len(results) != 1 {
		t.Errorf("expected title match, got %d", len(results))
	}
	if results, _ := s.Search(ctx, SearchParams{Query: "pgbouncer"}); len(results) != 1 {
		t.Errorf("expected facts match, got %d", len(results))
	}
}

func TestSearch_UpdateReindexes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.Add(ctx, AddParams{Content: "alpha bravo"})

	newContent := "charlie delta"
	if _, err := s.Update(ctx, mem.ID, UpdateParams{Content: &newContent}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if results, _ := s.Search(ctx, SearchParams{Query: "alpha"}); len(results) != 0 {
		t.Errorf("stale index entry: old content still matches (%d)", len(results))
	}
	if results, _ := s.Search(ctx, SearchParams{Query: "charlie"}); len(results) != 1 {
		t.Errorf("expected new content to match, got %d", len(results))
	}
}

func TestSearch_DeleteRemovesFromIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mem, _ := s.Add(ctx, AddParams{Content: "soon to vanish"})
	s.Delete(ctx, mem.ID)

	if results, _ := s.Search(ctx, SearchParams{Query: "vanish"}); len(results) != 0 {
		t.Errorf("expected 0 after delete, got %d", len(results))
	}
}

func TestSearchFallback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "goroutine leak in the worker pool", Importance: 0.9})
	s.Add(ctx, AddParams{Content: "worker pool sizing notes", Importance: 0.5})
	s.Add(ctx, AddParams{Content: "unrelated frontend tweak", Importance: 1.0})

	// Exercised directly, independent of any FTS failure.
	results, err := s.searchFallback(ctx, "worker pool leak", 10, "", "")
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2, got %d", len(results))
	}
	// 3 terms x 0.9 beats 2 terms x 0.5; the zero-match record is discarded.
	if results[0].Importance != 0.9 {
		t.Errorf("expected highest scoring first, got importance %v", results[0].Importance)
	}

	results, _ = s.searchFallback(ctx, "nothing matches this", 10, "", "")
	if len(results) != 0 {
		t.Errorf("expected 0 for no matches, got %d", len(results))
	}
}

func TestSearchFallback_MalformedQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "quoted content here", Importance: 0.5})

	// Consecutive operators are invalid FTS5 syntax; the caller still gets
	// results via the fallback scorer.
	results, err := s.Search(ctx, SearchParams{Query: "quoted AND AND"})
	if err != nil {
		t.Fatalf("search with malformed query: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected fallback to match, got %d", len(results))
	}
}

func TestSearchByFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m1, _ := s.Add(ctx, AddParams{Content: "a", FilesRead: []string{"internal/auth/token.go"}, Importance: 0.3})
	m2, _ := s.Add(ctx, AddParams{Content: "b", FilesModified: []string{"internal/auth/token.go"}, Importance: 0.8})
	s.Add(ctx, AddParams{Content: "c", FilesRead: []string{"cmd/main.go"}})
	setEpoch(t, s, m1.ID, 1000)
	setEpoch(t, s, m2.ID, 2000)

	results, err := s.SearchByFile(ctx, "internal/auth/token.go", 10)
	if err != nil {
		t.Fatalf("search by file: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2, got %d", len(results))
	}
	if results[0].ID != m2.ID {
		t.Error("expected importance-descending order")
	}
}

func TestSearchByConcept(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "a", Concepts: []string{"gotcha"}, Importance: 0.2})
	s.Add(ctx, AddParams{Content: "b", Concepts: []string{"gotcha", "pattern"}, Importance: 0.9})
	s.Add(ctx, AddParams{Content: "c", Concepts: []string{"trade-off"}})

	results, err := s.SearchByConcept(ctx, "gotcha", 10)
	if err != nil {
		t.Fatalf("search by concept: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2, got %d", len(results))
	}
	if results[0].Importance != 0.9 {
		t.Error("expected importance-descending order")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := dir + "/stats.db"
	s, err := New(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.Add(ctx, AddParams{Content: "a", Project: "api"})
	s.Add(ctx, AddParams{Content: "b", Project: "api"})
	s.Add(ctx, AddParams{Content: "c", Project: "web"})
	s.CreateSession(ctx, "sess-1", "api", "hello")
	s.AddSummary(ctx, SummaryParams{SessionID: "sess-1", Project: "api"})
	s.AddUserPrompt(ctx, "sess-1", 1, "hello")

	stats, err := s.Stats(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Memories != 3 || stats.Sessions != 1 || stats.Summaries != 1 || stats.Prompts != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if len(stats.Projects) != 2 {
		t.Errorf("expected 2 projects, got %d", len(stats.Projects))
	}
	if stats.Projects[0].Project != "api" || stats.Projects[0].Memories != 2 {
		t.Errorf("expected api first with 2, got %+v", stats.Projects[0])
	}
	if stats.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, _ := New(Options{Path: dir + "/src.db"})
	defer s1.Close()

	s1.Add(ctx, AddParams{Content: "alpha", Project: "api", Tags: []string{"x"}})
	s1.Add(ctx, AddParams{Content: "beta", Importance: 0.8})

	exported, err := s1.ExportAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(exported) != 2 {
		t.Fatalf("expected 2 exported, got %d", len(exported))
	}

	s2, _ := New(Options{Path: dir + "/dst.db"})
	defer s2.Close()

	n, err := s2.Import(ctx, exported)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 imported, got %d", n)
	}

	count, _ := s2.Count(ctx)
	if count != 2 {
		t.Fatalf("expected 2 after import, got %d", count)
	}
	results, _ := s2.Search(ctx, SearchParams{Query: "alpha"})
	if len(results) != 1 {
		t.Errorf("expected imported rows to be searchable, got %d", len(results))
	}
}
