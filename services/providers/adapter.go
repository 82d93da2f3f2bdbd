package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/upb/deutschhelfer/utils"
	"go.uber.org/zap"
)

// Adapter is the single entry point for asking a provider a question
type Adapter struct {
	client   *Client
	images   *ImageTransformer
	preamble string
	logger   *zap.Logger
}

// NewAdapter wires a client and image transformer together. locale selects
// the preamble used for image prompts. With a nil images, requests carrying
// an image fail with KindImageProcessing.
func NewAdapter(client *Client, images *ImageTransformer, locale string, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		client:   client,
		images:   images,
		preamble: PreambleFor(locale),
		logger:   logger,
	}
}

// SendToProvider runs credential check, optional image transform, body
// construction, the network call and response parsing in sequence.
func (a *Adapter) SendToProvider(ctx context.Context, req Request) (result *Result, err error) {
	req.Credential = strings.TrimSpace(req.Credential)
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.ImageRef = strings.TrimSpace(req.ImageRef)

	if req.Credential == "" {
		return nil, newError(KindMissingCredential, req.Provider, "no credential configured", nil)
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, newError(KindInvalidRequest, req.Provider, "invalid request", err)
	}

	start := time.Now()
	var img *EncodedImage
	if req.ImageRef != "" {
		if a.images == nil {
			return nil, newError(KindImageProcessing, req.Provider, "image support is not configured", nil)
		}
		img, err = a.images.Transform(ctx, req.ImageRef)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Provider = req.Provider
			}
			a.logger.Warn("image transform failed", zap.String("provider", string(req.Provider)), zap.Error(err))
			return nil, err
		}
		// the resized copy only outlives the call when a Result carries it
		defer func() {
			if err != nil {
				a.images.Discard(img.Ref)
			}
		}()
	}

	preamble := a.preamble
	if req.Locale != "" {
		preamble = PreambleFor(req.Locale)
	}

	body, err := BuildRequestBody(req.Provider, req.Prompt, img, preamble)
	if err != nil {
		return nil, err
	}

	raw, err := a.client.Send(ctx, req.Provider, req.Credential, body)
	if err != nil {
		return nil, err
	}

	text, err := ParseResponse(req.Provider, raw)
	if err != nil {
		a.logger.Warn("unparseable provider response", zap.String("provider", string(req.Provider)), zap.Error(err))
		return nil, err
	}

	result = &Result{
		Text:     text,
		Provider: req.Provider,
	}
	if img != nil {
		result.ResizedImageRef = img.Ref
	}

	a.logger.Info("provider request completed",
		zap.String("provider", string(req.Provider)),
		zap.Bool("with_image", img != nil),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}
