package cryosnap

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Wangnov/cryosnap/fonts"
)

// fontGroup classifies characters by which fallback family stack can
// render them.
type fontGroup int

const (
	groupDefault fontGroup = iota
	groupCJK
	groupEmoji
	groupNerd
	groupUnicode
)

// fontGroupForRune picks the group for one rune. Characters of the
// Common, Inherited, or Unknown scripts inherit the previous run's
// group so punctuation stays with its surrounding text.
func fontGroupForRune(ch rune, prev fontGroup, hasPrev bool) fontGroup {
	if fonts.IsPrivateUse(ch) {
		return groupNerd
	}
	if fonts.IsEmoji(ch) {
		return groupEmoji
	}
	if fonts.IsCJK(ch) {
		return groupCJK
	}
	if hasPrev && fonts.IsNeutralScript(fonts.ScriptOf(ch)) {
		return prev
	}
	if ch <= 0x7f {
		return groupDefault
	}
	return groupUnicode
}

type fontRun struct {
	group fontGroup
	text  string
}

// splitTextByFontGroup splits text into maximal runs sharing one
// font group.
func splitTextByFontGroup(text string) []fontRun {
	var out []fontRun
	var current strings.Builder
	currentGroup := groupDefault
	hasGroup := false
	for _, ch := range text {
		group := fontGroupForRune(ch, currentGroup, hasGroup)
		if hasGroup && group != currentGroup {
			out = append(out, fontRun{group: currentGroup, text: current.String()})
			current.Reset()
		}
		currentGroup = group
		hasGroup = true
		current.WriteRune(ch)
	}
	if hasGroup && current.Len() > 0 {
		out = append(out, fontRun{group: currentGroup, text: current.String()})
	}
	return out
}

// fontFamilyVariants holds the per-group font-family attribute
// values, each prefixed with its own fallback stack.
type fontFamilyVariants struct {
	def     string
	cjk     string
	emoji   string
	nerd    string
	unicode string
}

func (v *fontFamilyVariants) forGroup(group fontGroup) string {
	switch group {
	case groupCJK:
		return v.cjk
	case groupEmoji:
		return v.emoji
	case groupNerd:
		return v.nerd
	case groupUnicode:
		return v.unicode
	default:
		return v.def
	}
}

func parseFontFamilyList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func buildFontFamilyVariant(base []string, prefix []string) string {
	var out []string
	seen := make(map[string]bool)
	push := func(name string) {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return
		}
		key := strings.ToLower(trimmed)
		if !seen[key] {
			seen[key] = true
			out = append(out, trimmed)
		}
	}
	for _, name := range prefix {
		push(name)
	}
	for _, name := range base {
		push(name)
	}
	return strings.Join(out, ", ")
}

func newFontFamilyVariants(fontFamily string, region fonts.Region) fontFamilyVariants {
	base := parseFontFamilyList(fontFamily)
	def := fontFamily
	if len(base) > 0 {
		def = strings.Join(base, ", ")
	}
	return fontFamilyVariants{
		def:     def,
		cjk:     buildFontFamilyVariant(base, fonts.RegionFamilies(region)),
		emoji:   buildFontFamilyVariant(base, fonts.AutoFallbackEmoji),
		nerd:    buildFontFamilyVariant(base, fonts.AutoFallbackNF),
		unicode: buildFontFamilyVariant(base, fonts.AutoFallbackGlobal),
	}
}

// buildSVG emits the complete SVG document for the laid-out lines.
func buildSVG(lines []Line, config *Config, defaultFG, fontCSS string, lineOffset int, titleText, fontFamily string) string {
	variants := newFontFamilyVariants(fontFamily, fonts.EffectiveRegion(fonts.Region(config.Font.CJKRegion)))

	padding := expandBox(config.Padding)
	margin := expandBox(config.Margin)
	padTop, padRight, padBottom, padLeft := padding[0], padding[1], padding[2], padding[3]
	marginTop, marginRight, marginBottom, marginLeft := margin[0], margin[1], margin[2], margin[3]

	if config.WindowControls {
		padTop += windowControlsHeight
	}

	lineHeightPx := config.Font.Size * config.LineHeight
	charWidth := config.Font.Size / fontHeightToWidthRatio
	lineCount := max(1, len(lines))

	lineNumberCells := 0
	if config.ShowLineNumbers {
		digits := max(3, len(fmt.Sprintf("%d", lineCount)))
		lineNumberCells = digits + 2
	}

	maxCells := 0
	for _, line := range lines {
		maxCells = max(maxCells, lineWidthCells(line))
	}
	maxCells += lineNumberCells

	contentWidth := float64(maxCells) * charWidth
	contentHeight := float64(lineCount) * lineHeightPx

	terminalWidth := contentWidth + padLeft + padRight
	terminalHeight := contentHeight + padTop + padBottom
	imageWidth := terminalWidth + marginLeft + marginRight
	imageHeight := terminalHeight + marginTop + marginBottom

	if config.Width > 0 {
		imageWidth = config.Width
		terminalWidth = max(imageWidth-marginLeft-marginRight, 0)
	}
	if config.Height > 0 {
		imageHeight = config.Height
		terminalHeight = max(imageHeight-marginTop-marginBottom, 0)
	}

	contentWidth = max(terminalWidth-padLeft-padRight, 0)
	contentHeight = max(terminalHeight-padTop-padBottom, 0)

	maxVisibleLines := lineCount
	if config.Height > 0 {
		maxVisibleLines = max(1, int(contentHeight/lineHeightPx))
	}

	var svg strings.Builder
	svg.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%.2f" height="%.2f">`,
		imageWidth, imageHeight))
	if fontCSS != "" {
		svg.WriteString(`<defs><style type="text/css">`)
		svg.WriteString(fontCSS)
		svg.WriteString(`</style></defs>`)
	}

	shadowActive := config.Shadow.Blur > 0 || config.Shadow.X != 0 || config.Shadow.Y != 0
	if shadowActive {
		svg.WriteString(`<defs><filter id="shadow" filterUnits="userSpaceOnUse">`)
		svg.WriteString(fmt.Sprintf(`<feGaussianBlur in="SourceAlpha" stdDeviation="%.2f"/>`, config.Shadow.Blur))
		svg.WriteString(fmt.Sprintf(`<feOffset dx="%.2f" dy="%.2f" result="offsetblur"/>`, config.Shadow.X, config.Shadow.Y))
		svg.WriteString(`<feMerge><feMergeNode/><feMergeNode in="SourceGraphic"/></feMerge>`)
		svg.WriteString(`</filter></defs>`)
	}

	terminalX := marginLeft
	terminalY := marginTop
	var terminalAttrs strings.Builder
	if config.Border.Radius > 0 {
		terminalAttrs.WriteString(fmt.Sprintf(` rx="%.2f" ry="%.2f"`, config.Border.Radius, config.Border.Radius))
	}
	if config.Border.Width > 0 {
		terminalAttrs.WriteString(fmt.Sprintf(` stroke="%s" stroke-width="%.2f"`, config.Border.Color, config.Border.Width))
	}
	if shadowActive {
		terminalAttrs.WriteString(` filter="url(#shadow)"`)
	}

	// Inset by half the stroke so the outside edge stays within the
	// terminal box.
	borderInset := config.Border.Width / 2
	svg.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"%s />`,
		terminalX+borderInset,
		terminalY+borderInset,
		max(terminalWidth-config.Border.Width, 0),
		max(terminalHeight-config.Border.Width, 0),
		config.Background,
		terminalAttrs.String()))

	// The clip extends one font size above the content so ascenders
	// and descenders of the first line survive.
	svg.WriteString(fmt.Sprintf(`<defs><clipPath id="contentClip"><rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"/></clipPath></defs>`,
		terminalX+padLeft,
		terminalY+padTop-config.Font.Size,
		contentWidth,
		max(contentHeight+config.Font.Size, 0)))

	if config.WindowControls {
		svg.WriteString(windowControlsSVG(config, terminalX, terminalY, terminalWidth, borderInset, titleText, &variants))
	}

	svg.WriteString(fmt.Sprintf(`<g font-family="%s" font-size="%.2fpx" clip-path="url(#contentClip)">`,
		escapeAttr(variants.def), config.Font.Size))

	var bgLayer, textLayer strings.Builder
	lineNumberWidthPx := float64(lineNumberCells) * charWidth
	for idx, line := range lines {
		if idx >= maxVisibleLines {
			break
		}
		y := terminalY + padTop + lineHeightPx*float64(idx+1)
		baseX := terminalX + padLeft

		if config.ShowLineNumbers {
			numberText := fmt.Sprintf("%*d  ", lineNumberCells-2, idx+1+lineOffset)
			textLayer.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" fill="#777777" xml:space="preserve">%s</text>`,
				baseX, y, escapeText(numberText)))
		}

		textX := baseX + lineNumberWidthPx
		textLayer.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" fill="%s" xml:space="preserve">`,
			textX, y, defaultFG))

		cursorX := textX
		for _, span := range line.Spans {
			widthPx := spanWidthPx(span.Text, charWidth)
			if span.Style.BG != "" {
				bgLayer.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`,
					cursorX, y-config.Font.Size, widthPx, lineHeightPx, span.Style.BG))
			}

			var attrs strings.Builder
			if span.Style.FG != "" {
				attrs.WriteString(fmt.Sprintf(` fill="%s"`, span.Style.FG))
			}
			if span.Style.Bold {
				attrs.WriteString(` font-weight="bold"`)
			}
			if span.Style.Italic {
				attrs.WriteString(` font-style="italic"`)
			}
			if span.Style.Underline || span.Style.Strike {
				var deco []string
				if span.Style.Underline {
					deco = append(deco, "underline")
				}
				if span.Style.Strike {
					deco = append(deco, "line-through")
				}
				attrs.WriteString(fmt.Sprintf(` text-decoration="%s"`, strings.Join(deco, " ")))
			}

			for _, run := range splitTextByFontGroup(span.Text) {
				family := variants.forGroup(run.group)
				familyAttr := ""
				if family != "" {
					familyAttr = fmt.Sprintf(` font-family="%s"`, escapeAttr(family))
				}
				textLayer.WriteString(fmt.Sprintf(`<tspan xml:space="preserve"%s%s>%s</tspan>`,
					attrs.String(), familyAttr, escapeText(run.text)))
			}
			cursorX += widthPx
		}
		textLayer.WriteString(`</text>`)
	}

	svg.WriteString(bgLayer.String())
	svg.WriteString(textLayer.String())
	svg.WriteString(`</g></svg>`)
	return svg.String()
}

// windowControlsSVG draws the traffic-light circles and the optional
// title text.
func windowControlsSVG(config *Config, terminalX, terminalY, terminalWidth, borderInset float64, titleText string, variants *fontFamilyVariants) string {
	var svg strings.Builder
	const r = 5.5
	x := terminalX + borderInset + windowControlsXOffset
	y := terminalY + windowControlsXOffset
	svg.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#FF5A54"/>`, x, y, r))
	svg.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#E6BF29"/>`, x+windowControlsSpacing, y, r))
	svg.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="#52C12B"/>`, x+windowControlsSpacing*2, y, r))

	title := sanitizeTitleText(titleText)
	if title == "" {
		return svg.String()
	}
	titleSize := config.Title.Size
	if titleSize <= 0 {
		titleSize = max(config.Font.Size-2, 8)
	}
	charWidth := titleSize / fontHeightToWidthRatio
	controlsRight := x + windowControlsSpacing*2 + r
	titleMargin := float64(windowControlsXOffset)
	leftReserved := (controlsRight - terminalX) + titleMargin
	rightReserved := titleMargin
	var availablePx float64
	if config.Title.Align == AlignCenter {
		availablePx = terminalWidth - 2*leftReserved
	} else {
		availablePx = terminalWidth - leftReserved - rightReserved
	}
	if availablePx <= 0 {
		return svg.String()
	}

	maxCells := int(max(availablePx/charWidth, 0))
	if config.Title.MaxWidth > 0 {
		maxCells = min(maxCells, config.Title.MaxWidth)
	}
	truncated := truncateToCells(title, maxCells, config.Title.Ellipsis)
	if truncated == "" {
		return svg.String()
	}

	var titleX float64
	var anchor string
	switch config.Title.Align {
	case AlignLeft:
		titleX, anchor = terminalX+leftReserved, "start"
	case AlignRight:
		titleX, anchor = terminalX+terminalWidth-rightReserved, "end"
	default:
		titleX, anchor = terminalX+terminalWidth/2, "middle"
	}
	titleY := terminalY + windowControlsXOffset + titleSize*0.35
	opacity := config.Title.Opacity
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	opacityAttr := ""
	if opacity < 1 {
		opacityAttr = fmt.Sprintf(` fill-opacity="%.2f"`, opacity)
	}
	svg.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" fill="%s" font-family="%s" font-size="%.2fpx" text-anchor="%s"%s>%s</text>`,
		titleX, titleY,
		escapeAttr(config.Title.Color),
		escapeAttr(variants.def),
		titleSize, anchor, opacityAttr,
		escapeText(truncated)))
	return svg.String()
}

func escapeText(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	return strings.ReplaceAll(text, ">", "&gt;")
}

func escapeAttr(text string) string {
	return strings.ReplaceAll(escapeText(text), `"`, "&quot;")
}

// svgFontFaceCSS builds @font-face rules embedding the configured
// font file as a base64 data URL. The mime type is inferred from the
// file extension, defaulting to TrueType.
func svgFontFaceCSS(config *Config) (string, error) {
	if config.Font.File == "" {
		return "", nil
	}
	data, err := os.ReadFile(config.Font.File)
	if err != nil {
		return "", ioErr(err)
	}
	format, mime := "truetype", "font/ttf"
	switch strings.ToLower(filepath.Ext(config.Font.File)) {
	case ".woff2":
		format, mime = "woff2", "font/woff2"
	case ".woff":
		format, mime = "woff", "font/woff"
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("@font-face { font-family: '%s'; src: url(data:%s;base64,%s) format('%s'); }",
		escapeAttr(config.Font.Family), mime, encoded, format), nil
}
