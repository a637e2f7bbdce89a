// Package cryosnap renders source code, ANSI terminal output, or
// captured command transcripts into stylised terminal-window images
// (SVG, PNG, or WebP).
package cryosnap

// Layout constants shared by the SVG synthesiser and the layout
// helpers. The height-to-width ratio matches the metrics of common
// monospace fonts at typical hinting.
const (
	fontHeightToWidthRatio = 1.68
	defaultTabWidth        = 4
	ansiTabWidth           = 6
	windowControlsHeight   = 18.0
	windowControlsXOffset  = 12.0
	windowControlsSpacing  = 19.0

	defaultWebPQuality     = 90.0
	defaultRasterScale     = 4.0
	defaultRasterMaxPixels = 8_000_000
	defaultPNGOptLevel     = 4
	maxPNGOptLevel         = 6
	defaultQuantizeQuality = 85
	defaultQuantizeSpeed   = 4
	defaultQuantizeDither  = 1.0
	defaultTitleSize       = 12.0
	defaultTitleOpacity    = 0.85
	defaultTitleMaxWidth   = 80
)

// Style is the resolved text attribute set of a span. Colors are
// "#RRGGBB" strings; empty means unset.
type Style struct {
	FG        string
	BG        string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
}

// Span is a run of text sharing one Style.
type Span struct {
	Text  string
	Style Style
}

// Line is an ordered sequence of spans. Adjacent spans with equal
// styles are coalesced when lines are built.
type Line struct {
	Spans []Span
}

func appendSpan(spans []Span, text string, style Style) []Span {
	if text == "" {
		return spans
	}
	if n := len(spans); n > 0 && spans[n-1].Style == style {
		spans[n-1].Text += text
		return spans
	}
	return append(spans, Span{Text: text, Style: style})
}

// InputKind distinguishes the two render paths.
type InputKind int

const (
	// KindCode runs the detab/window/wrap/highlight path.
	KindCode InputKind = iota
	// KindAnsi runs the ANSI parser path.
	KindAnsi
)

// InputSource selects where the text to render comes from.
type InputSource struct {
	kind inputSourceKind

	text string
	path string
	cmd  string
}

type inputSourceKind int

const (
	inputText inputSourceKind = iota
	inputFile
	inputCommand
)

// TextInput renders the given string directly.
func TextInput(s string) InputSource { return InputSource{kind: inputText, text: s} }

// FileInput reads the file at path.
func FileInput(path string) InputSource { return InputSource{kind: inputFile, path: path} }

// CommandInput runs cmd in a pseudo-terminal and renders its output.
func CommandInput(cmd string) InputSource { return InputSource{kind: inputCommand, cmd: cmd} }

// OutputFormat selects the encoded result type.
type OutputFormat string

const (
	FormatSVG  OutputFormat = "svg"
	FormatPNG  OutputFormat = "png"
	FormatWebP OutputFormat = "webp"
)

// RenderRequest bundles one render call.
type RenderRequest struct {
	Input  InputSource
	Config Config
	Format OutputFormat
}

// RenderResult carries the encoded bytes of one render.
type RenderResult struct {
	Format OutputFormat
	Bytes  []byte
}
