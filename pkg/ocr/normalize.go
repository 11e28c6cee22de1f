package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Normalize decodes a screenshot, fixes its orientation and downscales it to maxWidth.
// The result is always re-encoded as PNG so text edges stay sharp for extraction.
func Normalize(data []byte, maxWidth int) (Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Image{}, fmt.Errorf("decode screenshot: %w", err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Image{}, fmt.Errorf("encode screenshot: %w", err)
	}

	return Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
}
