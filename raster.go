package cryosnap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	resvg "github.com/kanrichan/resvg-go"

	"github.com/Wangnov/cryosnap/fonts"
)

// rasterBackend turns an SVG document into PNG bytes.
type rasterBackend interface {
	renderPNG(svg []byte, config *Config, needsSystemFonts bool) ([]byte, error)
}

var (
	svgWidthRe  = regexp.MustCompile(`width="([0-9.]+)"`)
	svgHeightRe = regexp.MustCompile(`height="([0-9.]+)"`)
)

// svgDimensions reads the root element's width and height.
func svgDimensions(svg []byte) (int, int, error) {
	end := bytes.IndexByte(svg, '>')
	if end < 0 {
		return 0, 0, renderErrf("svg parse: missing root element")
	}
	root := svg[:end+1]
	widthMatch := svgWidthRe.FindSubmatch(root)
	heightMatch := svgHeightRe.FindSubmatch(root)
	if widthMatch == nil || heightMatch == nil {
		return 0, 0, renderErrf("svg parse: missing dimensions")
	}
	width, err := strconv.ParseFloat(string(widthMatch[1]), 64)
	if err != nil {
		return 0, 0, renderErrf("svg parse: %v", err)
	}
	height, err := strconv.ParseFloat(string(heightMatch[1]), 64)
	if err != nil {
		return 0, 0, renderErrf("svg parse: %v", err)
	}
	w := int(math.Round(width))
	h := int(math.Round(height))
	if w <= 0 || h <= 0 {
		return 0, 0, renderErrf("svg parse: degenerate size %dx%d", w, h)
	}
	return w, h, nil
}

// rasterScale resolves the effective render scale: 1 when explicit
// image dimensions are configured, else raster.scale, clamped so the
// output stays within raster.max_pixels.
func rasterScale(config *Config, baseWidth, baseHeight int) (float64, error) {
	scale := 1.0
	if config.Width == 0 && config.Height == 0 {
		scale = config.Raster.Scale
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return 0, renderErrf("invalid raster scale")
	}
	if config.Raster.MaxPixels > 0 {
		basePixels := float64(baseWidth) * float64(baseHeight)
		if basePixels > 0 {
			maxPixels := float64(config.Raster.MaxPixels)
			if basePixels*scale*scale > maxPixels {
				maxScale := math.Sqrt(maxPixels / basePixels)
				if !math.IsNaN(maxScale) && !math.IsInf(maxScale, 0) && maxScale > 0 {
					scale = math.Min(scale, maxScale)
				}
			}
		}
	}
	return scale, nil
}

// resvgBackend renders in process through the bundled resvg runtime
// with a font database assembled from the app, config, and
// (optionally) system fonts.
type resvgBackend struct{}

func (resvgBackend) renderPNG(svg []byte, config *Config, needsSystemFonts bool) ([]byte, error) {
	baseWidth, baseHeight, err := svgDimensions(svg)
	if err != nil {
		return nil, err
	}
	scale, err := rasterScale(config, baseWidth, baseHeight)
	if err != nil {
		return nil, err
	}
	width, err := scaleDimension(baseWidth, scale)
	if err != nil {
		return nil, err
	}
	height, err := scaleDimension(baseHeight, scale)
	if err != nil {
		return nil, err
	}

	worker, err := resvg.NewDefaultWorker(context.Background())
	if err != nil {
		return nil, renderErrf("resvg init: %v", err)
	}
	defer worker.Close()

	fontdb, err := worker.NewFontDBDefault()
	if err != nil {
		return nil, renderErrf("resvg fontdb: %v", err)
	}
	defer fontdb.Close()
	fontFiles, err := fonts.CollectFontFiles(fontOptions(config), needsSystemFonts)
	if err != nil {
		return nil, renderErrf("font files: %v", err)
	}
	for _, path := range fontFiles {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		if loadErr := fontdb.LoadFontData(data); loadErr != nil {
			continue
		}
	}

	tree, err := worker.NewTreeFromData(svg, &resvg.Options{})
	if err != nil {
		return nil, renderErrf("svg parse: %v", err)
	}
	defer tree.Close()
	if err := tree.ConvertText(fontdb); err != nil {
		return nil, renderErrf("svg text: %v", err)
	}

	pixmap, err := worker.NewPixmap(uint32(width), uint32(height))
	if err != nil {
		return nil, renderErrf("invalid pixmap size %dx%d", width, height)
	}
	defer pixmap.Close()
	if err := tree.Render(resvg.TransformFromScale(float32(scale), float32(scale)), pixmap); err != nil {
		return nil, renderErrf("resvg render: %v", err)
	}
	out, err := pixmap.EncodePNG()
	if err != nil {
		return nil, renderErrf("png encode: %v", err)
	}
	return out, nil
}

// rsvgBackend shells out to rsvg-convert, feeding the SVG on stdin
// and reading PNG from stdout.
type rsvgBackend struct{ bin string }

func (b rsvgBackend) renderPNG(svg []byte, config *Config, _ bool) ([]byte, error) {
	baseWidth, baseHeight, err := svgDimensions(svg)
	if err != nil {
		return nil, err
	}
	scale, err := rasterScale(config, baseWidth, baseHeight)
	if err != nil {
		return nil, err
	}

	args := []string{"--format", "png"}
	if math.Abs(scale-1.0) > 1e-9 {
		args = append(args, "--zoom", fmt.Sprintf("%.6f", scale))
	}
	args = append(args, "-")

	cmd := exec.Command(b.bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			return nil, renderErrf("rsvg-convert failed: %v", err)
		}
		return nil, renderErrf("rsvg-convert failed: %s", message)
	}
	if stdout.Len() == 0 {
		return nil, renderErrf("rsvg-convert returned empty output")
	}
	return stdout.Bytes(), nil
}

// rsvgConvertPath locates the rsvg-convert binary once per process.
var rsvgConvertPath = sync.OnceValue(func() string {
	names := []string{"rsvg-convert"}
	if runtime.GOOS == "windows" {
		names = []string{"rsvg-convert.exe", "rsvg-convert"}
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
})

// tryRenderPNGWithRsvg runs the external backend when the
// configuration allows it. The bool reports whether rsvg handled the
// render; under the auto backend any failure defers to resvg.
func tryRenderPNGWithRsvg(svg []byte, config *Config) ([]byte, bool, error) {
	backend := config.Raster.Backend
	if backend == BackendResvg {
		return nil, false, nil
	}
	bin := rsvgConvertPath()
	if bin == "" {
		if backend == BackendRsvg {
			return nil, false, renderErrf("rsvg-convert not found in PATH")
		}
		return nil, false, nil
	}
	out, err := rsvgBackend{bin: bin}.renderPNG(svg, config, false)
	if err != nil {
		if backend == BackendRsvg {
			return nil, false, err
		}
		return nil, false, nil
	}
	return out, true, nil
}

// rasterizeToImage renders the SVG in process and decodes the result
// into a straight-alpha image. WebP always takes this path;
// quantisation takes it when the rsvg backend did not handle the
// render.
func rasterizeToImage(svg []byte, config *Config, needsSystemFonts bool) (image.Image, error) {
	data, err := resvgBackend{}.renderPNG(svg, config, needsSystemFonts)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, renderErrf("png decode: %v", err)
	}
	return img, nil
}

// fontOptions maps the configuration's typography slice onto the
// fonts package.
func fontOptions(config *Config) fonts.Options {
	file := config.Font.File
	if file != "" {
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
	}
	return fonts.Options{
		Family:         config.Font.Family,
		File:           file,
		Fallbacks:      config.Font.Fallbacks,
		Dirs:           config.Font.Dirs,
		CJKRegion:      fonts.Region(config.Font.CJKRegion),
		AutoDownload:   config.Font.AutoDownload,
		ForceUpdate:    config.Font.ForceUpdate,
		SystemFallback: fonts.FallbackMode(config.Font.SystemFallback),
	}
}
