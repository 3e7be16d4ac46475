package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ink/common"
)

// LoadTexture decodes src and uploads it to device as an RGBA8 texture.
//
// Parameters:
//   - device: the device that owns the texture
//   - src: the encoded image
//   - filter: the sampling filter of the texture
//
// Returns:
//   - Texture: the uploaded texture, released by the caller
//   - error: an error if decoding or uploading fails
func LoadTexture(device Device, src common.ImageSource, filter FilterMode) (Texture, error) {
	pixels, width, height, err := src.Decode()
	if err != nil {
		return nil, err
	}
	tex, err := device.UploadTexture(TextureDescriptor{
		Label:  src.Name,
		Width:  width,
		Height: height,
		Filter: filter,
	}, pixels)
	if err != nil {
		return nil, fmt.Errorf("load texture %q: %w", src.Name, err)
	}
	return tex, nil
}
