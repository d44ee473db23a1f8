package catalogsvc

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime"

	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeWebP = "image/webp"
	MIMETypeTIFF = "image/tiff"
)

//nolint:gochecknoglobals
var (
	imageHeaders = []struct {
		mimeType string
		prefix   string
	}{
		{MIMETypeJPEG, "\xFF\xD8"},
		{MIMETypePNG, "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		{MIMETypeGIF, "GIF87a"},
		{MIMETypeGIF, "GIF89a"},
		{MIMETypeTIFF, "\x49\x49\x2A\x00"},
		{MIMETypeTIFF, "\x4D\x4D\x00\x2A"},
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		MIMETypeJPEG: jpeg.Decode,
		MIMETypePNG:  png.Decode,
		MIMETypeGIF:  gif.Decode,
		MIMETypeWebP: webp.Decode,
		MIMETypeTIFF: tiff.Decode,
	}
)

// sniffImageType identifies the image format from its leading bytes, falling
// back to the declared content type.
func sniffImageType(data []byte, contentType string) (string, error) {
	for _, header := range imageHeaders {
		if bytes.HasPrefix(data, []byte(header.prefix)) {
			return header.mimeType, nil
		}
	}

	// RIFF....WEBP
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return MIMETypeWebP, nil
	}

	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if _, ok := imageDecoders[mediaType]; ok {
			return mediaType, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
}

func getDecoderByType(mimeType string) (func(io.Reader) (image.Image, error), error) {
	decoder, ok := imageDecoders[mimeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImage, mimeType)
	}

	return decoder, nil
}
