package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseSize bounds how much of a reply body is read
const maxResponseSize = 4 << 20

// Client sends wire bodies to the provider endpoints
type Client struct {
	httpClient *http.Client
	endpoints  map[Provider]string
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport. The default uses the standard
// transport settings and no timeout.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithEndpoint overrides the URL of one provider, used to point at test servers
func WithEndpoint(p Provider, url string) ClientOption {
	return func(cl *Client) { cl.endpoints[p] = url }
}

// NewClient creates a new provider client
func NewClient(logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: &http.Client{},
		endpoints:  make(map[Provider]string),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send performs exactly one POST of body to the provider and returns the
// 2xx reply. Non-2xx replies become KindProviderHTTP errors.
func (c *Client) Send(ctx context.Context, p Provider, credential string, body *WireBody) (*RawResponse, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, newError(KindMissingCredential, p, "no credential configured", nil)
	}

	cfg, err := Lookup(p)
	if err != nil {
		return nil, newError(KindRequestSetup, p, "unsupported provider", err)
	}
	if body == nil || body.Provider != p {
		return nil, newError(KindRequestSetup, p, "body was built for a different provider", nil)
	}

	reqBody, err := json.Marshal(body.Payload)
	if err != nil {
		return nil, newError(KindRequestSetup, p, "failed to marshal request", err)
	}

	endpoint := cfg.Endpoint
	if override, ok := c.endpoints[p]; ok {
		endpoint = override
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, newError(KindRequestSetup, p, "failed to create request", err)
	}
	httpReq.Header = cfg.Headers(credential)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("provider request failed",
			zap.String("provider", string(p)),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, newError(KindNetworkUnreachable, p, "no response received", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, newError(KindNetworkUnreachable, p, "failed to read response", err)
	}

	c.logger.Debug("provider responded",
		zap.String("provider", string(p)),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, c.handleErrorResponse(p, httpResp.StatusCode, respBody)
	}

	return &RawResponse{StatusCode: httpResp.StatusCode, Body: respBody}, nil
}

// handleErrorResponse maps a non-2xx reply to a provider error
func (c *Client) handleErrorResponse(p Provider, statusCode int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", statusCode)
	}

	c.logger.Warn("provider returned error",
		zap.String("provider", string(p)),
		zap.Int("status", statusCode),
		zap.String("message", msg))

	e := newError(KindProviderHTTP, p, msg, nil)
	e.StatusCode = statusCode
	return e
}
