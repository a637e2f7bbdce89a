package cryosnap

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/ericpauley/go-quantize/quantize"
	xdraw "golang.org/x/image/draw"
)

// quantizeSettings are the resolved quality/speed/dither knobs.
type quantizeSettings struct {
	quality int
	speed   int
	dither  float64
}

func presetSettings(preset QuantizePreset) quantizeSettings {
	switch preset {
	case QuantizeFast:
		return quantizeSettings{quality: 70, speed: 7, dither: 0.5}
	case QuantizeBest:
		return quantizeSettings{quality: 95, speed: 1, dither: 1.0}
	default:
		return quantizeSettings{
			quality: defaultQuantizeQuality,
			speed:   defaultQuantizeSpeed,
			dither:  defaultQuantizeDither,
		}
	}
}

func resolveQuantizeSettings(opts *PNGOptions) quantizeSettings {
	var s quantizeSettings
	if opts.QuantizePreset != nil {
		s = presetSettings(*opts.QuantizePreset)
	} else {
		s = quantizeSettings{
			quality: opts.QuantizeQuality,
			speed:   opts.QuantizeSpeed,
			dither:  opts.QuantizeDither,
		}
	}
	if s.quality < 0 {
		s.quality = 0
	}
	if s.quality > 100 {
		s.quality = 100
	}
	if s.speed < 1 {
		s.speed = 1
	}
	if s.speed > 10 {
		s.speed = 10
	}
	if s.dither < 0 {
		s.dither = 0
	}
	if s.dither > 1 {
		s.dither = 1
	}
	return s
}

// toNRGBA returns img as a straight-alpha RGBA image: an *image.NRGBA
// is returned as is, anything else is copied into a new buffer.
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}

// quantizeImageToPNG palettises img and encodes an indexed PNG. The
// palette size tracks quality; speed above 4 switches to the cheaper
// aggregation mode, and speed 8 or more samples a half-size copy when
// both dimensions exceed 256; dither at or above 0.5 enables
// Floyd-Steinberg.
func quantizeImageToPNG(img image.Image, opts *PNGOptions) ([]byte, error) {
	settings := resolveQuantizeSettings(opts)
	src := toNRGBA(img)
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, renderErrf("png quantize: empty image")
	}

	colors := 2 + (254*settings.quality)/100

	quantizer := quantize.MedianCutQuantizer{
		Aggregation:    quantize.Mean,
		AddTransparent: true,
	}
	sample := image.Image(src)
	if settings.speed > 4 {
		quantizer.Aggregation = quantize.Mode
	}
	if settings.speed >= 8 && bounds.Dx() > 256 && bounds.Dy() > 256 {
		// High speed settings quantise against a quarter-size sample;
		// the remap below still runs on the full image.
		small := image.NewNRGBA(image.Rect(0, 0, bounds.Dx()/2, bounds.Dy()/2))
		xdraw.NearestNeighbor.Scale(small, small.Bounds(), src, bounds, xdraw.Src, nil)
		sample = small
	}
	palette := quantizer.Quantize(make(color.Palette, 0, colors), sample)
	if len(palette) == 0 {
		return nil, renderErrf("png quantize: empty palette")
	}

	paletted := image.NewPaletted(image.Rect(0, 0, bounds.Dx(), bounds.Dy()), palette)
	if settings.dither >= 0.5 {
		draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), src, bounds.Min)
	} else {
		draw.Draw(paletted, paletted.Bounds(), src, bounds.Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, paletted); err != nil {
		return nil, renderErrf("png encode: %v", err)
	}
	return buf.Bytes(), nil
}

// quantizePNGBytes decodes an already-encoded PNG (the external
// rasteriser path) and quantises it. Indexed input is rejected.
func quantizePNGBytes(data []byte, opts *PNGOptions) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, renderErrf("png decode: %v", err)
	}
	if _, ok := img.(*image.Paletted); ok {
		return nil, renderErrf("png decode: indexed color not expanded")
	}
	return quantizeImageToPNG(img, opts)
}

func compressionForLevel(level int) png.CompressionLevel {
	switch {
	case level <= 1:
		return png.BestSpeed
	case level <= 3:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// optimizePNG losslessly re-encodes data at the configured preset.
// strip=none carries the original ancillary chunks over; safe and
// all drop them. The original bytes win when re-encoding does not
// shrink the file.
func optimizePNG(data []byte, opts *PNGOptions) ([]byte, error) {
	if !opts.Optimize {
		return data, nil
	}
	level := opts.Level
	if level < 0 {
		level = 0
	}
	if level > maxPNGOptLevel {
		level = maxPNGOptLevel
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, renderErrf("png decode: %v", err)
	}
	encoder := png.Encoder{CompressionLevel: compressionForLevel(level)}
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, renderErrf("png encode: %v", err)
	}
	out := buf.Bytes()

	if opts.Strip == StripNone {
		if extra := ancillaryChunks(data); len(extra) > 0 {
			out, err = insertChunksBeforeIEND(out, extra)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ancillaryChunks returns the raw bytes of every ancillary chunk in
// data, except tRNS (its transparency already survives decode and
// re-encode).
func ancillaryChunks(data []byte) [][]byte {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil
	}
	var out [][]byte
	pos := len(pngSignature)
	for pos+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		total := 12 + length
		if pos+total > len(data) {
			break
		}
		chunkType := string(data[pos+4 : pos+8])
		// Ancillary chunks have a lowercase first letter.
		if chunkType[0] >= 'a' && chunkType[0] <= 'z' && chunkType != "tRNS" {
			out = append(out, data[pos:pos+total])
		}
		if chunkType == "IEND" {
			break
		}
		pos += total
	}
	return out
}

func insertChunksBeforeIEND(data []byte, chunks [][]byte) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, renderErrf("png optimize: invalid output")
	}
	pos := len(pngSignature)
	for pos+12 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		total := 12 + length
		if pos+total > len(data) {
			break
		}
		if string(data[pos+4:pos+8]) == "IEND" {
			out := make([]byte, 0, len(data)+totalLen(chunks))
			out = append(out, data[:pos]...)
			for _, chunk := range chunks {
				out = append(out, chunk...)
			}
			out = append(out, data[pos:]...)
			return out, nil
		}
		pos += total
	}
	return nil, renderErrf("png optimize: missing IEND")
}

func totalLen(chunks [][]byte) int {
	n := 0
	for _, chunk := range chunks {
		n += len(chunk)
	}
	return n
}
