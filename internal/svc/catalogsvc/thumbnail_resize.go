package catalogsvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
)

var (
	// ErrUnknownInterpolator is returned when an unsupported interpolation method is specified.
	ErrUnknownInterpolator = errors.New("unknown interpolator")

	// ErrUnsupportedImage is returned when trying to process an unsupported image format.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

//nolint:gochecknoglobals
var (
	// interpolMap maps interpolator names to their implementations.
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// scaleToPNG scales the image in data to width, keeping its aspect ratio,
// and encodes the result as PNG. Images are never scaled up.
func scaleToPNG(data []byte, mimeType string, width int, interpolator string) ([]byte, image.Rectangle, error) {
	decoder, err := getDecoderByType(mimeType)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	original, err := decoder(bytes.NewReader(data))
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("decode image: %w", err)
	}

	interpol, err := getInterpolatorByName(interpolator)
	if err != nil {
		return nil, image.Rectangle{}, err
	}

	src := original.Bounds()
	if src.Dx() == 0 || src.Dy() == 0 {
		return nil, image.Rectangle{}, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}

	width = min(width, src.Dx())
	height := max(1, src.Dy()*width/src.Dx())

	bitmap := image.NewRGBA(image.Rect(0, 0, width, height))
	interpol.Scale(bitmap, bitmap.Bounds(), original, src, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, bitmap); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("encode image: %w", err)
	}

	return buf.Bytes(), bitmap.Bounds(), nil
}
