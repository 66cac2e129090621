package parser

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo describes an embedded image payload.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// DescribeImage decodes only the header of an image payload. ok is false
// when the format is not recognised.
func DescribeImage(data []byte) (ImageInfo, bool) {
	if len(data) == 0 {
		return ImageInfo{}, false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, false
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, true
}
