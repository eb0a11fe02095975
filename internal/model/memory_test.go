package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"bugfix":    "bugfix",
		"discovery": "discovery",
		"":          "change",
		"BUGFIX":    "change",
		"unknown":   "change",
	}
	for in, want := range cases {
		if got := NormalizeType(in); got != want {
			t.Errorf("NormalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"learning":   "learning",
		"tech_stack": "tech_stack",
		"":           "general",
		"bogus":      "general",
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClampImportance(t *testing.T) {
	cases := map[float64]float64{
		-0.1: 0,
		0:    0,
		0.5:  0.5,
		1:    1,
		2.5:  1,
	}
	for in, want := range cases {
		if got := ClampImportance(in); got != want {
			t.Errorf("ClampImportance(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := DeriveTitle("explicit", "ignored content"); got != "explicit" {
		t.Errorf("explicit title dropped: %q", got)
	}
	if got := DeriveTitle("", "short content"); got != "short content" {
		t.Errorf("short content not used as-is: %q", got)
	}

	long := strings.Repeat("x", 80)
	got := DeriveTitle("", long)
	if got != long[:50]+"..." {
		t.Errorf("long content not truncated: %q", got)
	}

	if got := DeriveTitle("", ""); got != "" {
		t.Errorf("empty input should stay empty: %q", got)
	}
}

func TestDeriveTitleMultiByte(t *testing.T) {
	// The 50th character boundary lands inside a multi-byte rune when
	// truncation counts bytes; it must count runes.
	content := strings.Repeat("a", 49) + "élan vital and then some more trailing text"
	got := DeriveTitle("", content)
	if !utf8.ValidString(got) {
		t.Fatalf("derived title is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("a", 49)+"é..." {
		t.Errorf("expected 50-rune prefix with ellipsis, got %q", got)
	}

	cjk := strings.Repeat("記", 60)
	got = DeriveTitle("", cjk)
	if !utf8.ValidString(got) {
		t.Fatalf("derived title is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("記", 50)+"..." {
		t.Errorf("expected 50 runes kept, got %d", utf8.RuneCountInString(got)-3)
	}

	// 50 runes but more than 50 bytes stays untouched.
	short := strings.Repeat("ü", 50)
	if got := DeriveTitle("", short); got != short {
		t.Errorf("50-rune content should not be truncated: %q", got)
	}
}

func TestIndex(t *testing.T) {
	m := Memory{
		ID:       "abc",
		Type:     TypeDiscovery,
		Title:    "t",
		Content:  strings.Repeat("a", 200),
		Concepts: []string{"gotcha"},
	}
	idx := m.Index()
	if idx.ID != "abc" || idx.Type != TypeDiscovery {
		t.Errorf("fields not carried: %+v", idx)
	}
	if idx.TokenEstimate != 50 {
		t.Errorf("token estimate = %d, want 50", idx.TokenEstimate)
	}
}

func TestHasConcept(t *testing.T) {
	concepts := []string{"how-it-works", "Gotcha"}
	if !HasConcept(concepts, "gotcha") {
		t.Error("expected case-insensitive match")
	}
	if HasConcept(concepts, "pattern") {
		t.Error("unexpected match")
	}
}
