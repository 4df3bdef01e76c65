package loaders

import (
	"fmt"
	"image"
	"io"
	"os"

	// Decoders registered for image.Decode
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/texture"
)

// LoadTexture decodes an 8-bit image (PNG, JPEG, BMP or TIFF) into a
// linear-light texture grid. Encoded values pass through the inverse sRGB
// transfer; rows are flipped so (0, 0) is the bottom-left texel.
func LoadTexture(r io.Reader) (*texture.Grid, error) {
	decoded, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding texture: %w", err)
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	grid := texture.NewGrid(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r16, g16, b16, _ := decoded.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			color := core.NewVec3(
				InverseGamma(float64(r16)/0xFFFF),
				InverseGamma(float64(g16)/0xFFFF),
				InverseGamma(float64(b16)/0xFFFF),
			)
			grid.Set(x, height-1-y, color)
		}
	}

	return grid, nil
}

// LoadTextureFile decodes a texture from a file path
func LoadTextureFile(path string) (*texture.Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return LoadTexture(file)
}
