package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImageTransformer_Transform(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		format     string
		wantWidth  int
		wantHeight int
	}{
		{name: "landscape png", width: 2000, height: 1000, format: "png", wantWidth: 800, wantHeight: 400},
		{name: "portrait jpeg", width: 1200, height: 1800, format: "jpg", wantWidth: 800, wantHeight: 1200},
		{name: "portrait under max width", width: 600, height: 1200, format: "png", wantWidth: 600, wantHeight: 1200},
		{name: "small gif", width: 320, height: 200, format: "gif", wantWidth: 320, wantHeight: 200},
		{name: "exactly max width", width: 800, height: 533, format: "jpg", wantWidth: 800, wantHeight: 533},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeTestImage(t, t.TempDir(), tt.width, tt.height, tt.format)
			outDir := t.TempDir()
			tr := NewImageTransformer(outDir, zap.NewNop())

			img, err := tr.Transform(context.Background(), src)
			require.NoError(t, err)

			assert.Equal(t, "image/jpeg", img.MediaType)
			assert.LessOrEqual(t, img.Width, MaxImageWidth)
			assert.Equal(t, tt.wantWidth, img.Width)
			assert.Equal(t, tt.wantHeight, img.Height)

			raw, err := base64.StdEncoding.DecodeString(img.Base64)
			require.NoError(t, err)
			cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantWidth, cfg.Width)

			assert.Equal(t, outDir, filepath.Dir(img.Ref))
			stored, err := os.ReadFile(img.Ref)
			require.NoError(t, err)
			assert.Equal(t, raw, stored)
		})
	}
}

func TestImageTransformer_FileURI(t *testing.T) {
	src := writeTestImage(t, t.TempDir(), 1000, 500, "png")
	tr := NewImageTransformer(t.TempDir(), nil)

	img, err := tr.Transform(context.Background(), "file://"+src)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 400, img.Height)
}

func TestImageTransformer_HTTPS(t *testing.T) {
	data, err := os.ReadFile(writeTestImage(t, t.TempDir(), 1600, 900, "png"))
	require.NoError(t, err)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	tr := NewImageTransformer(t.TempDir(), nil)
	tr.httpClient = srv.Client()

	img, err := tr.Transform(context.Background(), srv.URL+"/photo.png")
	require.NoError(t, err)
	assert.Equal(t, 800, img.Width)
	assert.Equal(t, 450, img.Height)
}

func TestImageTransformer_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(garbage, []byte("kein Bild"), 0o644))

	htmlSrv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer htmlSrv.Close()

	tests := []struct {
		name string
		ref  string
	}{
		{name: "missing file", ref: filepath.Join(dir, "missing.jpg")},
		{name: "not an image", ref: garbage},
		{name: "empty reference", ref: "  "},
		{name: "plain http", ref: "http://example.com/a.jpg"},
		{name: "non-image content type", ref: htmlSrv.URL + "/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewImageTransformer(t.TempDir(), nil)
			tr.httpClient = htmlSrv.Client()

			img, err := tr.Transform(context.Background(), tt.ref)
			require.Error(t, err)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, ErrImageProcessing)
		})
	}
}

func TestImageTransformer_SizeLimit(t *testing.T) {
	src := writeTestImage(t, t.TempDir(), 400, 400, "png")
	tr := NewImageTransformer(t.TempDir(), nil)
	tr.maxBytes = 16

	_, err := tr.Transform(context.Background(), src)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindImageProcessing))
	assert.Contains(t, err.Error(), "exceeds")
}
