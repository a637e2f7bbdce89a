package cryosnap

import (
	"bytes"
	"image"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// imageToWebP encodes the rasterised image as lossy WebP at the
// fixed quality.
func imageToWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, defaultWebPQuality)
	if err != nil {
		return nil, renderErrf("webp options: %v", err)
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, toNRGBA(img), options); err != nil {
		return nil, renderErrf("webp encode: %v", err)
	}
	return buf.Bytes(), nil
}
