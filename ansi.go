package cryosnap

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiPalette is the 16-colour terminal palette (indices 0-7 normal,
// 8-15 bright).
var ansiPalette = [16]string{
	"#282a2e", "#D74E6F", "#31BB71", "#D3E561",
	"#8056FF", "#ED61D7", "#04D7D7", "#C5C8C6",
	"#4B4B4B", "#FE5F86", "#00D787", "#EBFF71",
	"#8F69FF", "#FF7AEA", "#00FEFE", "#FFFFFF",
}

func ansiColor(code int) string {
	idx := code
	switch {
	case code >= 30 && code <= 37:
		idx = code - 30
	case code >= 40 && code <= 47:
		idx = code - 40
	case code >= 90 && code <= 97:
		idx = code - 90 + 8
	case code >= 100 && code <= 107:
		idx = code - 100 + 8
	}
	if idx >= 0 && idx < len(ansiPalette) {
		return ansiPalette[idx]
	}
	return "#C5C8C6"
}

// xtermColor maps a 256-colour palette index to hex: 0-15 reuse the
// base palette, 16-231 form the 6x6x6 cube, 232-255 the gray ramp.
func xtermColor(idx int) string {
	if idx < 16 {
		return ansiColor(idx)
	}
	if idx >= 232 {
		v := 8 + (idx-232)*10
		return fmt.Sprintf("#%02X%02X%02X", v, v, v)
	}
	idx -= 16
	r := idx / 36
	g := (idx % 36) / 6
	b := idx % 6
	comp := func(v int) int {
		if v == 0 {
			return 0
		}
		return 55 + 40*v
	}
	return fmt.Sprintf("#%02X%02X%02X", comp(r), comp(g), comp(b))
}

type ansiParserState int

const (
	ansiGround ansiParserState = iota
	ansiEscape
	ansiCSI
	ansiOSC
	ansiOSCEscape
)

// ansiParser is a byte-driven state machine that turns terminal
// output into styled lines. Only SGR sequences and LF/CR/HT are
// interpreted; every other control sequence is consumed and dropped.
type ansiParser struct {
	lines []Line
	style Style
	col   int

	state  ansiParserState
	params []byte
}

func newANSIParser() *ansiParser {
	return &ansiParser{lines: []Line{{}}}
}

// parseANSI parses text as terminal output. The result always has at
// least one line; the last may be empty.
func parseANSI(text string) []Line {
	p := newANSIParser()
	for _, ch := range text {
		p.advance(ch)
	}
	if len(p.lines) == 0 {
		p.lines = append(p.lines, Line{})
	}
	return p.lines
}

func (p *ansiParser) advance(ch rune) {
	switch p.state {
	case ansiGround:
		p.ground(ch)
	case ansiEscape:
		switch ch {
		case '[':
			p.state = ansiCSI
			p.params = p.params[:0]
		case ']':
			p.state = ansiOSC
		default:
			// Single-character escapes are dropped.
			p.state = ansiGround
		}
	case ansiCSI:
		if ch >= 0x40 && ch <= 0x7e {
			if ch == 'm' {
				p.applySGR(string(p.params))
			}
			p.state = ansiGround
			return
		}
		if len(p.params) < 64 {
			p.params = append(p.params, byte(ch))
		}
	case ansiOSC:
		switch ch {
		case '\a':
			p.state = ansiGround
		case 0x1b:
			p.state = ansiOSCEscape
		}
	case ansiOSCEscape:
		// ESC \ terminates an OSC string; anything else resumes it.
		if ch == '\\' {
			p.state = ansiGround
		} else {
			p.state = ansiOSC
		}
	}
}

func (p *ansiParser) ground(ch rune) {
	switch ch {
	case 0x1b:
		p.state = ansiEscape
	case '\n':
		p.lines = append(p.lines, Line{})
		p.col = 0
	case '\r':
		p.col = 0
	case '\t':
		for range tabStop(p.col, ansiTabWidth) {
			p.pushRune(' ')
		}
	default:
		if ch < 0x20 || ch == 0x7f {
			return
		}
		p.pushRune(ch)
	}
}

func (p *ansiParser) pushRune(ch rune) {
	line := &p.lines[len(p.lines)-1]
	line.Spans = appendSpan(line.Spans, string(ch), p.style)
	p.col += runewidth.RuneWidth(ch)
}

// applySGR processes the parameter bytes of a CSI ... m sequence
// left to right. Missing or empty parameters default to 0.
func (p *ansiParser) applySGR(raw string) {
	// Private-marker or intermediate bytes mean a sequence we do not
	// interpret.
	if strings.ContainsAny(raw, "<=>?! ") {
		return
	}
	values := parseSGRParams(raw)
	for i := 0; i < len(values); i++ {
		switch v := values[i]; {
		case v == 0:
			p.style = Style{}
		case v == 1:
			p.style.Bold = true
		case v == 3:
			p.style.Italic = true
		case v == 4:
			p.style.Underline = true
		case v == 9:
			p.style.Strike = true
		case v == 22:
			p.style.Bold = false
		case v == 23:
			p.style.Italic = false
		case v == 24:
			p.style.Underline = false
		case v == 29:
			p.style.Strike = false
		case v >= 30 && v <= 37:
			p.style.FG = ansiColor(v)
		case v == 39:
			p.style.FG = ""
		case v >= 40 && v <= 47:
			p.style.BG = ansiColor(v)
		case v == 49:
			p.style.BG = ""
		case v >= 90 && v <= 97:
			p.style.FG = ansiColor(v)
		case v >= 100 && v <= 107:
			p.style.BG = ansiColor(v)
		case v == 38:
			if color, consumed := parseExtendedColor(values[i+1:]); consumed > 0 {
				p.style.FG = color
				i += consumed
			}
		case v == 48:
			if color, consumed := parseExtendedColor(values[i+1:]); consumed > 0 {
				p.style.BG = color
				i += consumed
			}
		}
	}
}

func parseSGRParams(raw string) []int {
	parts := strings.Split(raw, ";")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		n := 0
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				n = 0
				break
			}
			n = n*10 + int(ch-'0')
			if n > 0xffff {
				n = 0xffff
			}
		}
		values = append(values, n)
	}
	if len(values) == 0 {
		values = append(values, 0)
	}
	return values
}

// parseExtendedColor handles the 5;N (256-colour) and 2;R;G;B
// (truecolor) forms following SGR 38/48. It returns the colour and
// the number of parameters consumed, or 0 when the form is invalid.
func parseExtendedColor(values []int) (string, int) {
	if len(values) == 0 {
		return "", 0
	}
	switch values[0] {
	case 5:
		if len(values) >= 2 {
			return xtermColor(clampByte(values[1])), 2
		}
	case 2:
		if len(values) >= 4 {
			return fmt.Sprintf("#%02X%02X%02X",
				clampByte(values[1]), clampByte(values[2]), clampByte(values[3])), 4
		}
	}
	return "", 0
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// wrapANSILines wraps styled lines to a cell width, splitting spans
// across output lines while preserving their styles. Width 0 is a
// no-op.
func wrapANSILines(lines []Line, width int) []Line {
	if width == 0 {
		return lines
	}
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, splitLineByWidth(line, width)...)
	}
	return out
}

func splitLineByWidth(line Line, width int) []Line {
	if width == 0 {
		return []Line{line}
	}
	var out []Line
	var current Line
	currentWidth := 0

	for _, span := range line.Spans {
		var buf strings.Builder
		for _, ch := range span.Text {
			w := runewidth.RuneWidth(ch)
			if currentWidth+w > width && len(current.Spans) > 0 {
				if buf.Len() > 0 {
					current.Spans = append(current.Spans, Span{Text: buf.String(), Style: span.Style})
					buf.Reset()
				}
				out = append(out, current)
				current = Line{}
				currentWidth = 0
			}
			buf.WriteRune(ch)
			currentWidth += w
			if currentWidth >= width {
				current.Spans = append(current.Spans, Span{Text: buf.String(), Style: span.Style})
				buf.Reset()
				out = append(out, current)
				current = Line{}
				currentWidth = 0
			}
		}
		if buf.Len() > 0 {
			current.Spans = append(current.Spans, Span{Text: buf.String(), Style: span.Style})
		}
	}

	if len(current.Spans) > 0 {
		out = append(out, current)
	}
	if len(out) == 0 {
		out = append(out, Line{})
	}
	return out
}
