package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Downscale shrinks an image so its longest edge is at most maxEdge,
// preserving aspect ratio. It returns the re-encoded bytes, their MIME
// type, and whether a resize happened; an image already within bounds
// comes back as (nil, "", false, nil). PNG stays PNG; everything else
// re-encodes as JPEG at the given quality because Go has no BMP or WebP
// encoders worth using for API payloads.
func Downscale(data []byte, maxEdge, jpegQuality int) ([]byte, string, bool, error) {
	if maxEdge < 1 {
		return nil, "", false, nil
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxEdge && height <= maxEdge {
		return nil, "", false, nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxEdge
		newHeight = max(1, maxEdge*height/width)
	} else {
		newHeight = maxEdge
		newWidth = max(1, maxEdge*width/height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", false, fmt.Errorf("failed to encode resized image: %w", err)
		}
		return buf.Bytes(), "image/png", true, nil
	}

	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", false, fmt.Errorf("failed to encode resized image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", true, nil
}
