package cryosnap

import (
	"strings"
	"testing"
)

func lineText(line Line) string {
	var out strings.Builder
	for _, span := range line.Spans {
		out.WriteString(span.Text)
	}
	return out.String()
}

func TestParseANSI(t *testing.T) {
	t.Run("always at least one line", func(t *testing.T) {
		if got := parseANSI(""); len(got) != 1 {
			t.Fatalf("expected 1 line, got %d", len(got))
		}
	})

	t.Run("adjacent spans differ in style", func(t *testing.T) {
		inputs := []string{
			"plain",
			"\x1b[31mred\x1b[0mplain",
			"\x1b[1mbold\x1b[31mboldred\x1b[0m\x1b[31mred",
			"a\x1b[4mb\x1b[24mc",
		}
		for _, input := range inputs {
			for _, line := range parseANSI(input) {
				for i := 1; i < len(line.Spans); i++ {
					if line.Spans[i].Style == line.Spans[i-1].Style {
						t.Errorf("input %q: spans %d and %d share a style", input, i-1, i)
					}
				}
			}
		}
	})

	t.Run("basic colors", func(t *testing.T) {
		lines := parseANSI("\x1b[31mred")
		if len(lines) != 1 || len(lines[0].Spans) != 1 {
			t.Fatalf("unexpected shape: %+v", lines)
		}
		if lines[0].Spans[0].Style.FG != "#D74E6F" {
			t.Errorf("got fg %q", lines[0].Spans[0].Style.FG)
		}
	})

	t.Run("bright and background", func(t *testing.T) {
		lines := parseANSI("\x1b[97;41mx")
		style := lines[0].Spans[0].Style
		if style.FG != "#FFFFFF" {
			t.Errorf("got fg %q", style.FG)
		}
		if style.BG != "#D74E6F" {
			t.Errorf("got bg %q", style.BG)
		}
	})

	t.Run("256 color cube and grayscale", func(t *testing.T) {
		lines := parseANSI("\x1b[38;5;196mx\x1b[38;5;240my")
		if got := lines[0].Spans[0].Style.FG; got != "#FF0000" {
			t.Errorf("cube: got %q", got)
		}
		if got := lines[0].Spans[1].Style.FG; got != "#585858" {
			t.Errorf("gray: got %q", got)
		}
	})

	t.Run("truecolor", func(t *testing.T) {
		lines := parseANSI("\x1b[38;2;1;2;3mx\x1b[48;2;255;0;128my")
		if got := lines[0].Spans[0].Style.FG; got != "#010203" {
			t.Errorf("fg: got %q", got)
		}
		if got := lines[0].Spans[1].Style.BG; got != "#FF0080" {
			t.Errorf("bg: got %q", got)
		}
	})

	t.Run("attributes set and clear", func(t *testing.T) {
		lines := parseANSI("\x1b[1;3;4;9mx\x1b[22;23;24;29my")
		first := lines[0].Spans[0].Style
		if !first.Bold || !first.Italic || !first.Underline || !first.Strike {
			t.Errorf("set: %+v", first)
		}
		second := lines[0].Spans[1].Style
		if second.Bold || second.Italic || second.Underline || second.Strike {
			t.Errorf("clear: %+v", second)
		}
	})

	t.Run("reset clears everything", func(t *testing.T) {
		lines := parseANSI("\x1b[1;31mx\x1b[my")
		if got := lines[0].Spans[1].Style; got != (Style{}) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("lf opens a line, cr resets the column", func(t *testing.T) {
		lines := parseANSI("ab\ncd")
		if len(lines) != 2 || lineText(lines[0]) != "ab" || lineText(lines[1]) != "cd" {
			t.Fatalf("got %+v", lines)
		}
		lines = parseANSI("ab\rcd")
		if len(lines) != 1 {
			t.Fatalf("CR must not open a line: %+v", lines)
		}
	})

	t.Run("tab advances to ansi stops", func(t *testing.T) {
		lines := parseANSI("ab\tx")
		if got := lineText(lines[0]); got != "ab    x" {
			t.Errorf("got %q", got)
		}
		lines = parseANSI("\tx")
		if got := lineText(lines[0]); got != "      x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("other sequences are dropped", func(t *testing.T) {
		lines := parseANSI("\x1b[2Jab\x1b]0;title\x07cd\x1b[1;1Hef")
		if got := lineText(lines[0]); got != "abcdef" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("trailing newline keeps an empty last line", func(t *testing.T) {
		lines := parseANSI("ab\n")
		if len(lines) != 2 || len(lines[1].Spans) != 0 {
			t.Errorf("got %+v", lines)
		}
	})
}

func TestXtermColor(t *testing.T) {
	cases := map[int]string{
		0:   "#282a2e",
		1:   "#D74E6F",
		16:  "#000000",
		196: "#FF0000",
		231: "#FFFFFF",
		232: "#080808",
		255: "#EEEEEE",
	}
	for idx, want := range cases {
		if got := xtermColor(idx); got != want {
			t.Errorf("xtermColor(%d) = %q, want %q", idx, got, want)
		}
	}
}

func TestWrapANSILines(t *testing.T) {
	t.Run("splits spans across lines", func(t *testing.T) {
		lines := parseANSI("\x1b[31mhello world\x1b[0m")
		wrapped := wrapANSILines(lines, 4)
		if len(wrapped) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(wrapped))
		}
		for _, line := range wrapped {
			for _, span := range line.Spans {
				if span.Style.FG != "#D74E6F" {
					t.Errorf("span %q lost its style", span.Text)
				}
			}
		}
	})

	t.Run("width bound holds", func(t *testing.T) {
		lines := parseANSI("abcdefghij")
		for _, line := range wrapANSILines(lines, 3) {
			if got := lineWidthCells(line); got > 3 {
				t.Errorf("line measures %d cells", got)
			}
		}
	})

	t.Run("zero width is identity", func(t *testing.T) {
		lines := parseANSI("abc")
		if got := wrapANSILines(lines, 0); len(got) != 1 {
			t.Errorf("got %+v", got)
		}
	})
}
