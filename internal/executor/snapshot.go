package executor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Snapshot is the observable state of the surface after an action.
// A new Snapshot, with its own screenshot buffer, is built for every action.
type Snapshot struct {
	// Screenshot is PNG-encoded regardless of the surface's native capture format.
	Screenshot []byte `json:"screenshot" yaml:"-"`
	// Location is the executor's logical location when the snapshot was taken.
	Location string `json:"url" yaml:"url"`
}

// Image decodes the screenshot.
func (s *Snapshot) Image() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(s.Screenshot))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// encodeScreenshot encodes a captured raster as PNG, downscaling it to maxWidth
// (aspect ratio kept) when maxWidth is positive and the raster is wider.
func encodeScreenshot(img image.Image, maxWidth int) ([]byte, error) {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
