package catalogsvc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/infra/logging"
	"github.com/mkrupp/storefront/internal/repo/kv"
)

var (
	// ErrNoImage is returned for products without an image.
	ErrNoImage = errors.New("product has no image")
	// ErrInvalidWidth is returned for widths outside 1..MaxWidth.
	ErrInvalidWidth = errors.New("invalid thumbnail width")
)

// Downloader fetches raw bytes by URL. *apiclient.Client implements it.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Thumbnail is a scaled product image, always PNG encoded. Source is the
// image URL it was scaled from.
type Thumbnail struct {
	Data   []byte `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source string `json:"source"`
	Cached bool   `json:"-"`
}

// ThumbnailService scales product images and caches the results in the
// key-value store, keyed by product and width. A cached thumbnail whose
// source is no longer the product's first image is rebuilt.
type ThumbnailService struct {
	downloader Downloader
	store      kv.Store
	cfg        ThumbnailConfig
	log        logging.Logger
	flight     singleflight.Group
}

// NewThumbnailService creates a ThumbnailService. The interpolator named in
// cfg is checked here so a misconfiguration fails at startup.
func NewThumbnailService(downloader Downloader, store kv.Store, cfg ThumbnailConfig) (*ThumbnailService, error) {
	if _, err := getInterpolatorByName(cfg.Interpolator); err != nil {
		return nil, err
	}

	return &ThumbnailService{
		downloader: downloader,
		store:      store,
		cfg:        cfg,
		log:        logging.GetLogger("svc.catalogsvc.thumbnail_service"),
	}, nil
}

// ThumbnailKey returns the store key caching the thumbnail of productID at width.
func ThumbnailKey(productID domain.ID, width int) string {
	return fmt.Sprintf("thumb_%s_%d", productID, width)
}

// Thumbnail returns the first image of product scaled to width. Concurrent
// requests for the same thumbnail share one download.
func (s *ThumbnailService) Thumbnail(ctx context.Context, product domain.Product, width int) (thumb *Thumbnail, err error) {
	log := s.log.With(logging.Group("thumbnail", "product_id", product.ID, "width", width))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "thumbnail failed", "error", err)
		} else {
			log.DebugContext(ctx, "thumbnail served", "cached", thumb.Cached)
		}
	}()

	if width < 1 || (s.cfg.MaxWidth > 0 && width > s.cfg.MaxWidth) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}

	imageURL, ok := product.Thumbnail()
	if !ok {
		return nil, ErrNoImage
	}

	key := ThumbnailKey(product.ID, width)

	// Try serve from cache
	var cached Thumbnail

	found, err := s.store.Get(ctx, key, &cached)
	if err != nil && !errors.Is(err, kv.ErrMalformedValue) {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	if found && err == nil && len(cached.Data) > 0 {
		if cached.Source == imageURL {
			cached.Cached = true

			return &cached, nil
		}

		log.DebugContext(ctx, "image changed, rebuilding thumbnail", "cached_source", cached.Source)
	}

	v, err, _ := s.flight.Do(key+"\x00"+imageURL, func() (any, error) {
		return s.render(ctx, imageURL, width, key)
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	rendered, _ := v.(*Thumbnail)

	return &Thumbnail{Data: rendered.Data, Width: rendered.Width, Height: rendered.Height, Source: rendered.Source}, nil
}

// Invalidate drops the cached thumbnails of productID at the given widths.
func (s *ThumbnailService) Invalidate(ctx context.Context, productID domain.ID, widths ...int) error {
	keys := make([]string, 0, len(widths))
	for _, width := range widths {
		keys = append(keys, ThumbnailKey(productID, width))
	}

	if err := s.store.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("invalidate thumbnails: %w", err)
	}

	return nil
}

func (s *ThumbnailService) render(ctx context.Context, imageURL string, width int, key string) (*Thumbnail, error) {
	data, contentType, err := s.downloader.Download(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}

	mimeType, err := sniffImageType(data, contentType)
	if err != nil {
		return nil, err
	}

	scaled, bounds, err := scaleToPNG(data, mimeType, width, s.cfg.Interpolator)
	if err != nil {
		return nil, fmt.Errorf("scale image: %w", err)
	}

	thumb := &Thumbnail{Data: scaled, Width: bounds.Dx(), Height: bounds.Dy(), Source: imageURL}

	// Update cache
	if err := s.store.Set(ctx, key, thumb); err != nil {
		s.log.WarnContext(ctx, "failed to cache thumbnail", "key", key, "error", err)
	}

	return thumb, nil
}
