package cryosnap

import (
	"time"

	"github.com/Wangnov/cryosnap/fonts"
)

// Render runs the full pipeline for one request.
func Render(request RenderRequest) (RenderResult, error) {
	var bytes []byte
	var err error
	switch request.Format {
	case FormatSVG:
		bytes, err = RenderSVG(request.Input, &request.Config)
	case FormatPNG:
		bytes, err = RenderPNG(request.Input, &request.Config)
	case FormatWebP:
		bytes, err = RenderWebP(request.Input, &request.Config)
	default:
		return RenderResult{}, invalidInputf("unsupported output format %q", request.Format)
	}
	if err != nil {
		return RenderResult{}, err
	}
	return RenderResult{Format: request.Format, Bytes: bytes}, nil
}

// RenderSVG renders the input to an SVG document.
func RenderSVG(input InputSource, config *Config) ([]byte, error) {
	rendered, err := renderSVGWithPlan(input, config)
	if err != nil {
		return nil, err
	}
	return rendered.bytes, nil
}

// PlannedSVG is an SVG document together with the system-font
// requirement of its font plan, so multi-output callers can
// rasterise the same document without re-planning.
type PlannedSVG struct {
	Bytes            []byte
	NeedsSystemFonts bool
}

// RenderSVGPlanned renders the input to SVG and reports whether
// rasterising it needs operating-system fonts.
func RenderSVGPlanned(input InputSource, config *Config) (PlannedSVG, error) {
	rendered, err := renderSVGWithPlan(input, config)
	if err != nil {
		return PlannedSVG{}, err
	}
	return PlannedSVG{
		Bytes:            rendered.bytes,
		NeedsSystemFonts: rendered.plan.NeedsSystemFonts,
	}, nil
}

type renderedSVG struct {
	bytes []byte
	plan  fonts.Plan
}

// collectFontFallbackNeeds scans every rendered span plus the title.
func collectFontFallbackNeeds(lines []Line, titleText string) *fonts.Needs {
	needs := &fonts.Needs{}
	for _, line := range lines {
		for _, span := range line.Spans {
			needs.ScanText(span.Text)
		}
	}
	if titleText != "" {
		needs.ScanText(titleText)
	}
	return needs
}

// resolveScriptPlanLogged plans script fallbacks, degrading to an
// empty plan when planning fails. Planning is best-effort by design.
func resolveScriptPlanLogged(opts fonts.Options, needs *fonts.Needs) fonts.ScriptPlan {
	plan, err := fonts.ResolveScriptPlan(opts, needs, nil)
	if err != nil {
		fonts.WarnPlanFailure(err)
		return fonts.ScriptPlan{}
	}
	return plan
}

// renderSVGWithPlan is the core of the pipeline: load, window, wrap,
// highlight or ANSI-parse, plan fonts, and synthesise the document.
func renderSVGWithPlan(input InputSource, config *Config) (renderedSVG, error) {
	loaded, err := loadInput(input, time.Duration(config.ExecuteTimeoutMS)*time.Millisecond)
	if err != nil {
		return renderedSVG{}, err
	}

	var lines []Line
	var defaultFG string
	var lineOffset int
	if isANSIInput(loaded, config) {
		cut := cutText(loaded.text, config.Lines)
		lines = parseANSI(cut.text)
		if config.Wrap > 0 {
			lines = wrapANSILines(lines, config.Wrap)
		}
		defaultFG = "#C5C8C6"
		lineOffset = cut.start
	} else {
		text := detab(loaded.text, defaultTabWidth)
		cut := cutText(text, config.Lines)
		text = cut.text
		if config.Wrap > 0 {
			text = wrapText(text, config.Wrap)
		}
		lines, defaultFG, err = highlightCode(text, loaded.path, config.Language, config.Theme)
		if err != nil {
			return renderedSVG{}, err
		}
		lineOffset = cut.start
	}

	titleText := resolveTitleText(input, config)
	needs := collectFontFallbackNeeds(lines, titleText)
	opts := fontOptions(config)
	scriptPlan := resolveScriptPlanLogged(opts, needs)
	// Download failures log and never abort the render.
	_ = fonts.EnsureAvailable(opts, needs, scriptPlan)
	appFamilies := fonts.AppFamilies(opts)
	plan := fonts.BuildPlan(opts, needs, appFamilies, scriptPlan.Families)
	fontCSS, err := svgFontFaceCSS(config)
	if err != nil {
		return renderedSVG{}, err
	}
	svg := buildSVG(lines, config, defaultFG, fontCSS, lineOffset, titleText, plan.FontFamily)
	return renderedSVG{bytes: []byte(svg), plan: plan}, nil
}

// RenderPNG renders the input to PNG, including quantisation and
// optimisation when configured.
func RenderPNG(input InputSource, config *Config) ([]byte, error) {
	rendered, err := renderSVGWithPlan(input, config)
	if err != nil {
		return nil, err
	}
	return renderPNGFromSVGWithPlan(rendered.bytes, config, rendered.plan.NeedsSystemFonts)
}

// RenderWebP renders the input to WebP.
func RenderWebP(input InputSource, config *Config) ([]byte, error) {
	rendered, err := renderSVGWithPlan(input, config)
	if err != nil {
		return nil, err
	}
	return renderWebPFromSVGWithPlan(rendered.bytes, config, rendered.plan.NeedsSystemFonts)
}

// RenderPNGFromSVG rasterises a ready-made SVG document. The font
// needs are recovered by scanning the document text.
func RenderPNGFromSVG(svg []byte, config *Config) ([]byte, error) {
	return renderPNGFromSVGWithPlan(svg, config, svgNeedsSystemFonts(svg, config))
}

// RenderWebPFromSVG encodes a ready-made SVG document as WebP.
func RenderWebPFromSVG(svg []byte, config *Config) ([]byte, error) {
	return renderWebPFromSVGWithPlan(svg, config, svgNeedsSystemFonts(svg, config))
}

func renderPNGFromSVGWithPlan(svg []byte, config *Config, needsSystemFonts bool) ([]byte, error) {
	if pngBytes, handled, err := tryRenderPNGWithRsvg(svg, config); err != nil {
		return nil, err
	} else if handled {
		if config.PNG.Quantize {
			pngBytes, err = quantizePNGBytes(pngBytes, &config.PNG)
			if err != nil {
				return nil, err
			}
		}
		return optimizePNG(pngBytes, &config.PNG)
	}

	if config.PNG.Quantize {
		img, err := rasterizeToImage(svg, config, needsSystemFonts)
		if err != nil {
			return nil, err
		}
		pngBytes, err := quantizeImageToPNG(img, &config.PNG)
		if err != nil {
			return nil, err
		}
		return optimizePNG(pngBytes, &config.PNG)
	}

	pngBytes, err := resvgBackend{}.renderPNG(svg, config, needsSystemFonts)
	if err != nil {
		return nil, err
	}
	return optimizePNG(pngBytes, &config.PNG)
}

func renderWebPFromSVGWithPlan(svg []byte, config *Config, needsSystemFonts bool) ([]byte, error) {
	if config.Raster.Backend == BackendRsvg {
		return nil, renderErrf("rsvg backend does not support webp output")
	}
	img, err := rasterizeToImage(svg, config, needsSystemFonts)
	if err != nil {
		return nil, err
	}
	return imageToWebP(img)
}

// svgNeedsSystemFonts replans font needs from raw SVG text for the
// from-SVG entry points.
func svgNeedsSystemFonts(svg []byte, config *Config) bool {
	needs := &fonts.Needs{}
	needs.ScanText(string(svg))
	opts := fontOptions(config)
	scriptPlan := resolveScriptPlanLogged(opts, needs)
	_ = fonts.EnsureAvailable(opts, needs, scriptPlan)
	appFamilies := fonts.AppFamilies(opts)
	families := fonts.BuildFamilies(opts, needs, scriptPlan.Families)
	return fonts.NeedsSystemFonts(opts, appFamilies, families)
}
