package providers

import (
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeTestImage writes a w x h gradient image in the given format
func writeTestImage(t *testing.T, dir string, w, h int, format string) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, "source."+format)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	switch format {
	case "png":
		require.NoError(t, png.Encode(f, img))
	case "jpg":
		require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 90}))
	case "gif":
		require.NoError(t, gif.Encode(f, img, nil))
	default:
		t.Fatalf("unsupported test format %s", format)
	}
	return path
}

// fakeProvider is an httptest server that records how often it was hit
type fakeProvider struct {
	*httptest.Server
	hits atomic.Int32

	mu       sync.Mutex
	lastBody []byte
	header   http.Header
	path     string
}

func (fp *fakeProvider) body() string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return string(fp.lastBody)
}

func (fp *fakeProvider) requestHeader() http.Header {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.header
}

func newFakeProvider(t *testing.T, status int, body string) *fakeProvider {
	t.Helper()

	fp := &fakeProvider{}
	fp.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.hits.Add(1)
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		fp.mu.Lock()
		fp.lastBody = raw
		fp.header = r.Header.Clone()
		fp.path = r.URL.Path
		fp.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fp.Close)
	return fp
}

// newTestAdapter points every provider at url
func newTestAdapter(t *testing.T, url string) *Adapter {
	t.Helper()
	return newTestAdapterInDir(t, url, t.TempDir())
}

// newTestAdapterInDir is newTestAdapter with resized images written to dir
func newTestAdapterInDir(t *testing.T, url, dir string) *Adapter {
	t.Helper()

	logger := zap.NewNop()
	opts := []ClientOption{}
	for _, p := range All() {
		opts = append(opts, WithEndpoint(p, url))
	}
	client := NewClient(logger, opts...)
	images := NewImageTransformer(dir, logger)
	return NewAdapter(client, images, "tr", logger)
}

func marshalPayload(t *testing.T, body *WireBody) string {
	t.Helper()

	data, err := json.Marshal(body.Payload)
	require.NoError(t, err)
	return string(data)
}
