package catalogsvc

// ThumbnailConfig holds configuration parameters for product thumbnails.
type ThumbnailConfig struct {
	// Interpolator specifies the image scaling algorithm to use.
	// Valid values are: "nearestneighbor", "catmullrom", "bilinear", "approxbilinear"
	Interpolator string `env:"INTERPOLATOR" default:"catmullrom"`
	// MaxWidth bounds the width callers may request
	MaxWidth int `env:"MAX_WIDTH" default:"1024"`
}
