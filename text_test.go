package cryosnap

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestCutText(t *testing.T) {
	text := "a\nb\nc\nd\ne"

	t.Run("identity windows", func(t *testing.T) {
		for _, window := range [][]int{{}, {0}, {0, -1}} {
			got := cutText(text, window)
			if got.text != text || got.start != 0 {
				t.Errorf("window %v: got (%q, %d)", window, got.text, got.start)
			}
		}
	})

	t.Run("start to end", func(t *testing.T) {
		got := cutText(text, []int{2})
		if got.text != "c\nd\ne" || got.start != 2 {
			t.Errorf("got (%q, %d)", got.text, got.start)
		}
	})

	t.Run("negative keeps tail", func(t *testing.T) {
		got := cutText(text, []int{-2})
		if got.text != "d\ne" || got.start != 3 {
			t.Errorf("got (%q, %d)", got.text, got.start)
		}
	})

	t.Run("inclusive range", func(t *testing.T) {
		got := cutText(text, []int{1, 3})
		if got.text != "b\nc\nd" || got.start != 1 {
			t.Errorf("got (%q, %d)", got.text, got.start)
		}
	})

	t.Run("clamps out of range", func(t *testing.T) {
		got := cutText(text, []int{1, 99})
		if got.text != "b\nc\nd\ne" {
			t.Errorf("got %q", got.text)
		}
	})

	t.Run("start past total", func(t *testing.T) {
		got := cutText(text, []int{99})
		if got.text != "" || got.start != 5 {
			t.Errorf("got (%q, %d)", got.text, got.start)
		}
	})

	t.Run("inverted range collapses", func(t *testing.T) {
		got := cutText(text, []int{3, 1})
		if got.text != "" && got.text != "d" {
			// end clamps up to start, leaving an empty window
			t.Errorf("got %q", got.text)
		}
	})
}

func TestDetab(t *testing.T) {
	t.Run("boundary inserts full stop", func(t *testing.T) {
		if got := detab("\tx", 4); got != "    x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("fills to next stop", func(t *testing.T) {
		if got := detab("ab\tx", 4); got != "ab  x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("column resets at newline", func(t *testing.T) {
		if got := detab("ab\n\tx", 4); got != "ab\n    x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("wide characters advance two columns", func(t *testing.T) {
		if got := detab("日\tx", 4); got != "日  x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		input := "a\tb\n\t\tc\n日本\tx"
		once := detab(input, 4)
		if twice := detab(once, 4); twice != once {
			t.Errorf("detab not idempotent: %q vs %q", once, twice)
		}
	})
}

func TestWrapText(t *testing.T) {
	t.Run("zero disables", func(t *testing.T) {
		if got := wrapText("hello world", 0); got != "hello world" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("max line width never exceeds wrap", func(t *testing.T) {
		for _, width := range []int{1, 2, 4, 7, 80} {
			wrapped := wrapText("hello world, this is a long line\nshort", width)
			for _, line := range strings.Split(wrapped, "\n") {
				total := 0
				for _, ch := range line {
					total += runewidth.RuneWidth(ch)
				}
				if total > width {
					t.Errorf("width %d: line %q measures %d", width, line, total)
				}
			}
		}
	})

	t.Run("wide runes flush at boundary", func(t *testing.T) {
		got := wrapText("日本語", 2)
		if got != "日\n本\n語" {
			t.Errorf("got %q", got)
		}
	})
}

func TestExpandBox(t *testing.T) {
	cases := []struct {
		in   []float64
		want [4]float64
	}{
		{[]float64{5}, [4]float64{5, 5, 5, 5}},
		{[]float64{1, 2}, [4]float64{1, 2, 1, 2}},
		{[]float64{1, 2, 3, 4}, [4]float64{1, 2, 3, 4}},
		{nil, [4]float64{}},
	}
	for _, tc := range cases {
		if got := expandBox(tc.in); got != tc.want {
			t.Errorf("expandBox(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTruncateToCells(t *testing.T) {
	t.Run("fits unchanged", func(t *testing.T) {
		if got := truncateToCells("abc", 5, "…"); got != "abc" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("truncates with ellipsis", func(t *testing.T) {
		if got := truncateToCells("abcdef", 4, "…"); got != "abc…" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("oversized ellipsis keeps first rune", func(t *testing.T) {
		if got := truncateToCells("abcdef", 2, "..."); got != "." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("zero cells empty", func(t *testing.T) {
		if got := truncateToCells("abc", 0, "…"); got != "" {
			t.Errorf("got %q", got)
		}
	})
}

func TestLineWidthCells(t *testing.T) {
	line := Line{Spans: []Span{
		{Text: "ab"},
		{Text: "\t"},
		{Text: "日"},
	}}
	// ab (2) + tab to column 4 (2) + wide rune (2)
	if got := lineWidthCells(line); got != 6 {
		t.Errorf("got %d", got)
	}
}

func TestScaleDimension(t *testing.T) {
	if got, err := scaleDimension(100, 2); err != nil || got != 200 {
		t.Errorf("got (%d, %v)", got, err)
	}
	if _, err := scaleDimension(100, 0); err == nil {
		t.Error("expected an error for zero scale")
	}
}
