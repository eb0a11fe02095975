package store

import (
	"context"
	"testing"
)

func TestContextForSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "api observation one", Project: "api"})
	s.Add(ctx, AddParams{Content: "api observation two", Project: "api"})
	s.Add(ctx, AddParams{Content: "web observation", Project: "web"})
	s.AddSummary(ctx, SummaryParams{SessionID: "sess-1", Project: "api", Request: "older"})
	s.AddSummary(ctx, SummaryParams{SessionID: "sess-2", Project: "api", Request: "newer"})

	result, err := s.ContextForSession(ctx, ContextParams{Project: "api", IncludeSummaries: true})
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if result.ObservationCount != 2 {
		t.Errorf("observation_count = %d, want 2", result.ObservationCount)
	}
	if len(result.Observations) != result.ObservationCount {
		t.Error("count does not match slice length")
	}
	if result.LastSummary == nil {
		t.Fatal("expected last summary")
	}
	// Observations are index projections: no content field to carry.
	if result.Observations[0].TokenEstimate == 0 {
		t.Error("expected token estimate in projection")
	}
}

func TestContextForSession_NoSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "something", Project: "api"})

	result, err := s.ContextForSession(ctx, ContextParams{Project: "api"})
	if err != nil {
		t.Fatal(err)
	}
	if result.LastSummary != nil {
		t.Error("summaries not requested, expected nil")
	}

	empty, err := s.ContextForSession(ctx, ContextParams{Project: "no-such", IncludeSummaries: true})
	if err != nil {
		t.Fatal(err)
	}
	if empty.ObservationCount != 0 || empty.Observations == nil {
		t.Errorf("expected empty non-nil observations, got %+v", empty)
	}
}

func TestContextForSession_TimeWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old, _ := s.Add(ctx, AddParams{Content: "ancient", Project: "api"})
	s.Add(ctx, AddParams{Content: "recent", Project: "api"})
	setEpoch(t, s, old.ID, 1000) // far outside any day window

	result, err := s.ContextForSession(ctx, ContextParams{Project: "api", Days: 7})
	if err != nil {
		t.Fatal(err)
	}
	if result.ObservationCount != 1 {
		t.Errorf("expected the old record excluded, got %d", result.ObservationCount)
	}
}

func TestTimeline_InclusiveBoundaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const center = int64(1700000000000)
	const hour = int64(3600 * 1000)

	atStart, _ := s.Add(ctx, AddParams{Content: "at window start"})
	atCenter, _ := s.Add(ctx, AddParams{Content: "at center"})
	atEnd, _ := s.Add(ctx, AddParams{Content: "at window end"})
	beyond, _ := s.Add(ctx, AddParams{Content: "just past the end"})
	setEpoch(t, s, atStart.ID, center-hour)
	setEpoch(t, s, atCenter.ID, center)
	setEpoch(t, s, atEnd.ID, center+hour)
	setEpoch(t, s, beyond.ID, center+hour+1)

	result, err := s.Timeline(ctx, TimelineParams{CenterEpoch: center, WindowHours: 1})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if result.CenterEpoch != center || result.WindowHours != 1 {
		t.Errorf("echo fields wrong: %+v", result)
	}
	if len(result.Observations) != 3 {
		t.Fatalf("expected 3 inside the window, got %d", len(result.Observations))
	}
	// Newest first.
	if result.Observations[0].ID != atEnd.ID || result.Observations[2].ID != atStart.ID {
		t.Error("expected newest-first ordering")
	}
	for _, m := range result.Observations {
		if m.ID == beyond.ID {
			t.Error("record one ms past the window was included")
		}
	}
}

func TestTimeline_ProjectAndSummaries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const center = int64(1700000000000)

	m1, _ := s.Add(ctx, AddParams{Content: "api work", Project: "api"})
	m2, _ := s.Add(ctx, AddParams{Content: "web work", Project: "web"})
	setEpoch(t, s, m1.ID, center)
	setEpoch(t, s, m2.ID, center)

	sum, _ := s.AddSummary(ctx, SummaryParams{SessionID: "sess-1", Project: "api", Request: "r"})
	if _, err := s.db.Exec(`UPDATE session_summaries SET created_at_epoch = ? WHERE id = ?`, center, sum.ID); err != nil {
		t.Fatal(err)
	}

	result, err := s.Timeline(ctx, TimelineParams{CenterEpoch: center, WindowHours: 1, Project: "api"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Observations) != 1 || result.Observations[0].Project != "api" {
		t.Errorf("project filter wrong: %+v", result.Observations)
	}
	if len(result.Summaries) != 1 || result.Summaries[0].SessionID != "sess-1" {
		t.Errorf("expected the summary in the window: %+v", result.Summaries)
	}
}

func TestTimeline_Defaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Add(ctx, AddParams{Content: "fresh"})

	result, err := s.Timeline(ctx, TimelineParams{})
	if err != nil {
		t.Fatal(err)
	}
	if result.WindowHours != 24 {
		t.Errorf("default window = %d, want 24", result.WindowHours)
	}
	if result.CenterEpoch == 0 {
		t.Error("expected center to default to now")
	}
	if len(result.Observations) != 1 {
		t.Errorf("fresh record should fall inside the default window, got %d", len(result.Observations))
	}
	if result.Summaries == nil {
		t.Error("expected non-nil summaries slice")
	}
}
