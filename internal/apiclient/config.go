package apiclient

import (
	http_ "github.com/mkrupp/storefront/internal/infra/transport/http"
)

// Config holds configuration for the backend API client.
type Config struct {
	// BaseURL is the scheme and host of the REST backend
	BaseURL string `env:"API_URL" default:"http://localhost:5001"`
	// MaxDownloadBytes caps the size of raw downloads such as product images
	MaxDownloadBytes int64 `env:"MAX_DOWNLOAD_BYTES" default:"10485760"`

	Transport http_.HTTPTransportConfig `envPrefix:"HTTP_"`
}
