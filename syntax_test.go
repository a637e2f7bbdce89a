package cryosnap

import (
	"strings"
	"testing"
)

func TestSelectTheme(t *testing.T) {
	t.Run("charm is built in", func(t *testing.T) {
		theme := selectTheme("charm")
		if theme.Name != "charm" {
			t.Errorf("got %q", theme.Name)
		}
		theme = selectTheme("CHARM")
		if theme.Name != "charm" {
			t.Errorf("case-insensitive: got %q", theme.Name)
		}
	})

	t.Run("registered themes resolve", func(t *testing.T) {
		if theme := selectTheme("dracula"); theme.Name != "dracula" {
			t.Errorf("got %q", theme.Name)
		}
	})

	t.Run("unknown falls back", func(t *testing.T) {
		theme := selectTheme("definitely-not-a-theme")
		if theme == nil {
			t.Fatal("expected a fallback theme")
		}
		if theme.Name == "definitely-not-a-theme" {
			t.Error("unknown name must not resolve to itself")
		}
	})
}

func TestHighlightCode(t *testing.T) {
	t.Run("charm default foreground", func(t *testing.T) {
		_, fg, err := highlightCode("x", "", "", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		if !strings.EqualFold(fg, "#C4C4C4") {
			t.Errorf("got %q", fg)
		}
	})

	t.Run("keywords get the charm keyword color", func(t *testing.T) {
		lines, _, err := highlightCode("func main() {}", "", "go", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		found := false
		for _, span := range lines[0].Spans {
			if span.Text == "func" && strings.EqualFold(span.Style.FG, "#00AAFF") {
				found = true
			}
		}
		if !found {
			t.Errorf("no keyword span in %+v", lines[0].Spans)
		}
	})

	t.Run("line structure follows newlines", func(t *testing.T) {
		lines, _, err := highlightCode("a\nb\nc", "", "", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		for i, want := range []string{"a", "b", "c"} {
			if got := lineText(lines[i]); got != want {
				t.Errorf("line %d: got %q", i, got)
			}
		}
	})

	t.Run("trailing newline keeps an empty last line", func(t *testing.T) {
		lines, _, err := highlightCode("a\n", "", "", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if len(lines[1].Spans) != 0 {
			t.Errorf("expected an empty last line, got %+v", lines[1].Spans)
		}
	})

	t.Run("adjacent equal styles coalesce", func(t *testing.T) {
		lines, _, err := highlightCode("plain text here", "", "text", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		for _, line := range lines {
			for i := 1; i < len(line.Spans); i++ {
				if line.Spans[i].Style == line.Spans[i-1].Style {
					t.Errorf("spans %d and %d share a style: %+v", i-1, i, line.Spans)
				}
			}
		}
	})

	t.Run("path extension selects the lexer", func(t *testing.T) {
		lines, _, err := highlightCode("package main", "/tmp/x.go", "", "charm")
		if err != nil {
			t.Fatalf("highlight: %v", err)
		}
		found := false
		for _, span := range lines[0].Spans {
			if span.Text == "package" && span.Style.FG != "" && !strings.EqualFold(span.Style.FG, "#C4C4C4") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a highlighted keyword, got %+v", lines[0].Spans)
		}
	})
}
