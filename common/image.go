package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageSource describes a texture image that is either embedded or loaded from disk.
// Warp and edge-breakup noise textures are authored as PNG, BMP, TIFF or WebP files.
type ImageSource struct {
	// Name is an identifier for this texture (e.g., "warp").
	Name string `json:"name"`

	// Path is the file path for external textures (empty for embedded).
	Path string `json:"path,omitempty"`

	// Data contains raw encoded image bytes.
	Data []byte `json:"data,omitempty"`
}

// IsZero reports whether the source names no image at all.
func (s ImageSource) IsZero() bool {
	return s.Path == "" && len(s.Data) == 0
}

// Decode decodes the image to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - int: width in pixels
//   - int: height in pixels
//   - error: error if decoding fails
func (s ImageSource) Decode() ([]byte, int, int, error) {
	var img image.Image
	var err error

	switch {
	case len(s.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(s.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image %q: %w", s.Name, err)
		}
	case s.Path != "":
		file, fileErr := os.Open(s.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", s.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode texture file %s: %w", s.Path, err)
		}
	default:
		return nil, 0, 0, fmt.Errorf("image %q has neither data nor path", s.Name)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return rgba.Pix, bounds.Dx(), bounds.Dy(), nil
}
