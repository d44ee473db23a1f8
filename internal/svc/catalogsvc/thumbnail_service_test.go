package catalogsvc_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/storefront/internal/domain"
	"github.com/mkrupp/storefront/internal/repo/kv"
	. "github.com/mkrupp/storefront/internal/svc/catalogsvc"
)

type fakeDownloader struct {
	data        []byte
	contentType string
	err         error
	calls       atomic.Int32
}

func (d *fakeDownloader) Download(context.Context, string) ([]byte, string, error) {
	d.calls.Add(1)

	return d.data, d.contentType, d.err
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255}) //nolint:gosec
		}
	}

	return img
}

func encoded(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, testImage(400, 200)))

	return buf.Bytes()
}

func product() domain.Product {
	return domain.Product{ID: "p1", Images: []string{"/uploads/p1.png"}}
}

func newThumbnails(t *testing.T, d *fakeDownloader) (*ThumbnailService, *kv.MemoryStore) {
	t.Helper()

	store := kv.NewMemoryStore("inv_")

	svc, err := NewThumbnailService(d, store, ThumbnailConfig{Interpolator: "catmullrom", MaxWidth: 1024})
	require.NoError(t, err)

	return svc, store
}

func TestThumbnailService_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{
			name: "png",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }),
		},
		{
			name: "jpeg",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return jpeg.Encode(b, i, nil) }),
		},
		{
			name: "gif",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return gif.Encode(b, i, nil) }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newThumbnails(t, &fakeDownloader{data: tt.data, contentType: tt.contentType})

			thumb, err := svc.Thumbnail(context.Background(), product(), 100)
			require.NoError(t, err)
			assert.Equal(t, 100, thumb.Width)
			assert.Equal(t, 50, thumb.Height)

			decoded, err := png.Decode(bytes.NewReader(thumb.Data))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 100, 50), decoded.Bounds())
		})
	}
}

func TestThumbnailService_Cache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := &fakeDownloader{data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })}
	svc, store := newThumbnails(t, d)

	first, err := svc.Thumbnail(ctx, product(), 120)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Thumbnail(ctx, product(), 120)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Data, second.Data)
	assert.EqualValues(t, 1, d.calls.Load())

	found, err := store.Has(ctx, ThumbnailKey("p1", 120))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "thumb_p1_120", ThumbnailKey("p1", 120))

	require.NoError(t, svc.Invalidate(ctx, "p1", 120))

	_, err = svc.Thumbnail(ctx, product(), 120)
	require.NoError(t, err)
	assert.EqualValues(t, 2, d.calls.Load())
}

// imageHost serves a different image per URL.
type imageHost map[string][]byte

func (h imageHost) Download(_ context.Context, url string) ([]byte, string, error) {
	data, ok := h[url]
	if !ok {
		return nil, "", domain.ErrNotFound
	}

	return data, "image/png", nil
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))

	return buf.Bytes()
}

func TestThumbnailService_ImageChangeRebuilds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := imageHost{
		"/uploads/square.png": pngOf(t, 100, 100),
		"/uploads/wide.png":   pngOf(t, 100, 50),
	}

	svc, err := NewThumbnailService(host, kv.NewMemoryStore("inv_"), ThumbnailConfig{Interpolator: "nearestneighbor"})
	require.NoError(t, err)

	p := domain.Product{ID: "p1", Images: []string{"/uploads/square.png"}}

	first, err := svc.Thumbnail(ctx, p, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Height)

	p.Images = []string{"/uploads/wide.png"}

	second, err := svc.Thumbnail(ctx, p, 50)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, 25, second.Height)
	assert.Equal(t, "/uploads/wide.png", second.Source)

	third, err := svc.Thumbnail(ctx, p, 50)
	require.NoError(t, err)
	assert.True(t, third.Cached)
	assert.Equal(t, 25, third.Height)
}

func TestThumbnailService_MalformedCacheIsRebuilt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := &fakeDownloader{data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })}
	svc, store := newThumbnails(t, d)

	store.SetRaw(ThumbnailKey("p1", 80), []byte("not json"))

	thumb, err := svc.Thumbnail(ctx, product(), 80)
	require.NoError(t, err)
	assert.Equal(t, 80, thumb.Width)
	assert.EqualValues(t, 1, d.calls.Load())
}

func TestThumbnailService_NeverUpscales(t *testing.T) {
	t.Parallel()

	d := &fakeDownloader{data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })}
	svc, _ := newThumbnails(t, d)

	thumb, err := svc.Thumbnail(context.Background(), product(), 800)
	require.NoError(t, err)
	assert.Equal(t, 400, thumb.Width)
	assert.Equal(t, 200, thumb.Height)
}

func TestThumbnailService_ConcurrentRequestsShareDownload(t *testing.T) {
	t.Parallel()

	d := &fakeDownloader{data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })}
	svc, _ := newThumbnails(t, d)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Thumbnail(context.Background(), product(), 64)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, d.calls.Load(), int32(8))
	assert.GreaterOrEqual(t, d.calls.Load(), int32(1))
}

func TestThumbnailService_Errors(t *testing.T) {
	t.Parallel()

	errOffline := errors.New("offline")

	tests := []struct {
		name       string
		downloader *fakeDownloader
		product    domain.Product
		width      int
		wantErr    error
	}{
		{
			name:       "no image",
			downloader: &fakeDownloader{},
			product:    domain.Product{ID: "p2"},
			width:      100,
			wantErr:    ErrNoImage,
		},
		{
			name:       "zero width",
			downloader: &fakeDownloader{},
			product:    product(),
			width:      0,
			wantErr:    ErrInvalidWidth,
		},
		{
			name:       "width above maximum",
			downloader: &fakeDownloader{},
			product:    product(),
			width:      4096,
			wantErr:    ErrInvalidWidth,
		},
		{
			name:       "unsupported format",
			downloader: &fakeDownloader{data: []byte("<svg/>"), contentType: "image/svg+xml"},
			product:    product(),
			width:      100,
			wantErr:    ErrUnsupportedImage,
		},
		{
			name:       "download failure",
			downloader: &fakeDownloader{err: errOffline},
			product:    product(),
			width:      100,
			wantErr:    errOffline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newThumbnails(t, tt.downloader)

			_, err := svc.Thumbnail(context.Background(), tt.product, tt.width)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewThumbnailService_UnknownInterpolator(t *testing.T) {
	t.Parallel()

	_, err := NewThumbnailService(&fakeDownloader{}, kv.NewMemoryStore(""), ThumbnailConfig{Interpolator: "lanczos"})
	require.ErrorIs(t, err, ErrUnknownInterpolator)
}
