package cryosnap

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// cutResult is the outcome of applying a line window to a text.
type cutResult struct {
	text  string
	start int
}

// cutText applies a 0/1/2-element line window to text. Lines are
// 0-indexed after splitting on \n; [k>0] keeps from line k to the end,
// [k<0] keeps the last |k| lines, [a,b] is inclusive on both ends.
// Out-of-range values clamp; a start past the end yields an empty
// text with start = total.
func cutText(text string, window []int) cutResult {
	if len(window) == 0 {
		return cutResult{text: text}
	}
	if len(window) == 1 && window[0] == 0 {
		return cutResult{text: text}
	}
	if len(window) == 2 && window[0] == 0 && window[1] == -1 {
		return cutResult{text: text}
	}

	lines := strings.Split(text, "\n")
	total := len(lines)
	var start, end int
	end = total
	if len(window) == 1 {
		if window[0] > 0 {
			start = window[0]
		} else {
			start = total + window[0]
		}
	} else {
		start = window[0]
		end = window[1]
	}

	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end++
	if end < start {
		end = start
	}
	if end > total {
		end = total
	}

	if start >= total {
		return cutResult{text: "", start: start}
	}
	return cutResult{text: strings.Join(lines[start:end], "\n"), start: start}
}

// detab replaces each tab with spaces up to the next multiple of
// tabWidth, counting columns in display cells and resetting at
// newlines. A tab on a boundary inserts exactly tabWidth spaces.
func detab(text string, tabWidth int) string {
	var out strings.Builder
	out.Grow(len(text))
	col := 0
	for _, ch := range text {
		switch ch {
		case '\t':
			count := tabStop(col, tabWidth)
			out.WriteString(strings.Repeat(" ", count))
			col += count
		case '\n':
			col = 0
			out.WriteRune(ch)
		default:
			col += runewidth.RuneWidth(ch)
			out.WriteRune(ch)
		}
	}
	return out.String()
}

// tabStop returns the number of cells from col to the next multiple of
// tabWidth, or a full tabWidth when col is already on a boundary.
func tabStop(col, tabWidth int) int {
	count := 0
	for (col+count)%tabWidth != 0 {
		count++
	}
	if count == 0 {
		count = tabWidth
	}
	return count
}

// wrapText wraps each line of text to at most width display cells.
// Width 0 disables wrapping.
func wrapText(text string, width int) string {
	if width == 0 {
		return text
	}
	var outLines []string
	for _, line := range strings.Split(text, "\n") {
		var current strings.Builder
		currentWidth := 0
		lineStart := len(outLines)
		for _, ch := range line {
			w := runewidth.RuneWidth(ch)
			if currentWidth+w > width && current.Len() > 0 {
				outLines = append(outLines, current.String())
				current.Reset()
				currentWidth = 0
			}
			current.WriteRune(ch)
			currentWidth += w
			if currentWidth >= width {
				outLines = append(outLines, current.String())
				current.Reset()
				currentWidth = 0
			}
		}
		if current.Len() > 0 || len(outLines) == lineStart {
			outLines = append(outLines, current.String())
		}
	}
	return strings.Join(outLines, "\n")
}

// expandBox turns a 1/2/4-element box value into [top right bottom
// left] in CSS order.
func expandBox(values []float64) [4]float64 {
	switch len(values) {
	case 1:
		return [4]float64{values[0], values[0], values[0], values[0]}
	case 2:
		return [4]float64{values[0], values[1], values[0], values[1]}
	case 4:
		return [4]float64{values[0], values[1], values[2], values[3]}
	default:
		return [4]float64{}
	}
}

// textWidthCells is the display width of text with tabs costing a
// fixed defaultTabWidth each.
func textWidthCells(text string) int {
	width := 0
	for _, ch := range text {
		if ch == '\t' {
			width += defaultTabWidth
		} else {
			width += runewidth.RuneWidth(ch)
		}
	}
	return width
}

// truncateToCells cuts text to at most maxCells display cells,
// appending ellipsis when something was dropped. If the ellipsis
// itself does not fit, only its first rune survives. maxCells 0
// yields the empty string.
func truncateToCells(text string, maxCells int, ellipsis string) string {
	if maxCells == 0 {
		return ""
	}
	if textWidthCells(text) <= maxCells {
		return text
	}
	ellipsisWidth := textWidthCells(ellipsis)
	if ellipsisWidth >= maxCells {
		for _, ch := range ellipsis {
			return string(ch)
		}
		return ""
	}
	var out strings.Builder
	current := 0
	for _, ch := range text {
		w := runewidth.RuneWidth(ch)
		if current+w > maxCells-ellipsisWidth {
			break
		}
		out.WriteRune(ch)
		current += w
	}
	out.WriteString(ellipsis)
	return out.String()
}

// lineWidthCells is the display width of a styled line, expanding
// tabs against the running column.
func lineWidthCells(line Line) int {
	width := 0
	for _, span := range line.Spans {
		for _, ch := range span.Text {
			if ch == '\t' {
				width += tabStop(width, defaultTabWidth)
			} else {
				width += runewidth.RuneWidth(ch)
			}
		}
	}
	return width
}

// spanWidthPx is the pixel width of a span's text at the given cell
// width.
func spanWidthPx(text string, charWidth float64) float64 {
	width := 0
	for _, ch := range text {
		if ch == '\t' {
			width += tabStop(width, defaultTabWidth)
		} else {
			width += runewidth.RuneWidth(ch)
		}
	}
	return float64(width) * charWidth
}

// scaleDimension applies the raster scale to a base dimension,
// rejecting non-finite or degenerate results.
func scaleDimension(value int, scale float64) (int, error) {
	scaled := math.Round(float64(value) * scale)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) || scaled <= 0 {
		return 0, renderErrf("invalid raster scale")
	}
	if scaled > math.MaxInt32 {
		return 0, renderErrf("raster size overflow")
	}
	return int(scaled), nil
}
