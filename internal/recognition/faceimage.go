package recognition

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ErrNotDataURL is returned for face images that are not base64 data URLs.
var ErrNotDataURL = errors.New("face image is not a base64 data URL")

// DecodeDataURL decodes a "data:<mime>;base64,<payload>" string.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", ErrNotDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode face image: %w", err)
	}
	return data, mime, nil
}

// Thumbnail scales an encoded image to fit within maxSize on its longer side
// and returns it JPEG-encoded. Smaller images are re-encoded unscaled.
func Thumbnail(data []byte, maxSize int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	out := img
	if width > maxSize || height > maxSize {
		newWidth, newHeight := maxSize, maxSize
		if width > height {
			newHeight = max(1, height*maxSize/width)
		} else {
			newWidth = max(1, width*maxSize/height)
		}
		scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFaceThumbnail writes the face crop carried in dataURL to path as a
// JPEG thumbnail no larger than maxSize.
func SaveFaceThumbnail(path, dataURL string, maxSize int) error {
	data, _, err := DecodeDataURL(dataURL)
	if err != nil {
		return err
	}
	thumb, err := Thumbnail(data, maxSize)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, thumb, 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}
