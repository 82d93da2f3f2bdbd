package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	// MaxImageWidth is the width images are downscaled to
	MaxImageWidth = 800

	// JPEGQuality is the re-encoding quality (0.7 on a 0..1 scale)
	JPEGQuality = 70

	// DefaultMaxImageSize limits how many source bytes are read (20 MiB)
	DefaultMaxImageSize = 20 << 20

	// maxSourcePixels guards against decompression bombs
	maxSourcePixels = 64 << 20
)

// ImageTransformer turns a source image reference into a resized JPEG
type ImageTransformer struct {
	dir        string
	httpClient *http.Client
	maxBytes   int64
	logger     *zap.Logger
}

// NewImageTransformer stores resized copies under dir
func NewImageTransformer(dir string, logger *zap.Logger) *ImageTransformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageTransformer{
		dir:        dir,
		httpClient: http.DefaultClient,
		maxBytes:   DefaultMaxImageSize,
		logger:     logger,
	}
}

// Transform downscales the image behind ref to MaxImageWidth, re-encodes it
// as JPEG and writes the copy to the image directory.
func (t *ImageTransformer) Transform(ctx context.Context, ref string) (*EncodedImage, error) {
	data, err := t.load(ctx, ref)
	if err != nil {
		return nil, newError(KindImageProcessing, "", "cannot read image", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindImageProcessing, "", "unsupported image format", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxSourcePixels {
		return nil, newError(KindImageProcessing, "", fmt.Sprintf("image dimensions %dx%d out of range", cfg.Width, cfg.Height), nil)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindImageProcessing, "", "cannot decode image", err)
	}

	dst := resize(src, MaxImageWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, newError(KindImageProcessing, "", "cannot encode JPEG", err)
	}

	out, err := t.store(buf.Bytes())
	if err != nil {
		return nil, newError(KindImageProcessing, "", "cannot store resized image", err)
	}

	b := dst.Bounds()
	t.logger.Debug("image transformed",
		zap.Int("src_width", cfg.Width),
		zap.Int("src_height", cfg.Height),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("bytes", buf.Len()),
		zap.String("ref", out))

	return &EncodedImage{
		Base64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		MediaType: "image/jpeg",
		Ref:       out,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// resize scales src to maxWidth keeping the aspect ratio and flattens it
// onto white, since JPEG has no alpha channel.
func resize(src image.Image, maxWidth int) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w > maxWidth {
		h = (h*maxWidth + w/2) / w
		if h < 1 {
			h = 1
		}
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	return dst
}

func (t *ImageTransformer) load(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty image reference")
	}

	u, err := url.Parse(ref)
	if err == nil {
		switch u.Scheme {
		case "https":
			return t.fetch(ctx, ref)
		case "http":
			return nil, fmt.Errorf("only https image URLs are allowed")
		case "file":
			ref = u.Path
		}
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f, t.maxBytes)
}

func (t *ImageTransformer) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("unsupported content type %s", ct)
	}
	return readLimited(resp.Body, t.maxBytes)
}

func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("image exceeds %d bytes", max)
	}
	return data, nil
}

// Discard removes a resized copy written by Transform
func (t *ImageTransformer) Discard(ref string) {
	if ref == "" {
		return
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.logger.Warn("failed to remove resized image", zap.String("ref", ref), zap.Error(err))
	}
}

func (t *ImageTransformer) store(jpg []byte) (string, error) {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(t.dir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, jpg, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
