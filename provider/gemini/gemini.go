// Package gemini provides an ImageGenerator backed by the Gemini REST API.
//
// Requests are encoded with the wire types of the official Go SDK
// (https://github.com/googleapis/go-genai) but sent with a plain POST, so the
// raw status and body of every response stay available for classification
// and diagnostics.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	nanobanana "github.com/seiseiai1st/NanoBananaProPlayGround"
)

const (
	// APIModelNanoBananaPro is the actual API name for Gemini 3 Pro Image.
	APIModelNanoBananaPro = "gemini-3-pro-image-preview"

	// DefaultBaseURL is the Gemini API host.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	apiVersion = "v1beta"
)

// Client implements nanobanana.ImageGenerator. It keeps no per-call state and
// may be used from several goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      nanobanana.ModelInfo
	logger     *slog.Logger
}

// Ensure Client implements the interface.
var _ nanobanana.ImageGenerator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for the exchange.
// The default client has no timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithModel selects the API model name.
func WithModel(apiModelName string) Option {
	return func(c *Client) {
		c.model = ModelInfoFor(apiModelName)
	}
}

// WithLogger sets a structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for gemini-3-pro-image-preview.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		model:      NanoBananaProInfo,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model served by this client.
func (c *Client) Model() nanobanana.ModelInfo {
	return c.model
}

// Generate sends one generateContent request and classifies the response.
// It does not retry. Every failure after the request is built is a
// *nanobanana.GenerationError.
func (c *Client) Generate(ctx context.Context, req *nanobanana.GenerationRequest) (*nanobanana.GeneratedImage, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", nanobanana.ErrInvalidRequest)
	}
	if !req.AspectRatio.Valid() || !req.Resolution.Valid() {
		return nil, fmt.Errorf("%w: aspect ratio %q, resolution %q",
			nanobanana.ErrInvalidRequest, req.AspectRatio, req.Resolution)
	}

	payload, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.endpoint(req.APIKey)
	redacted := redactKey(endpoint, req.APIKey)

	c.logger.Debug("sending generate request",
		"endpoint", redacted,
		"aspect_ratio", req.AspectRatio.String(),
		"resolution", req.Resolution.String(),
		"has_reference", req.HasReference(),
		"payload_bytes", len(payload),
	)

	x, err := c.do(ctx, endpoint, payload)
	if err != nil {
		return nil, &nanobanana.GenerationError{
			Kind:       nanobanana.Network,
			Diagnostic: redactKey(err.Error(), req.APIKey),
			Err:        err,
		}
	}

	c.logger.Debug("received generate response",
		"endpoint", redacted,
		"status", x.status,
		"body_bytes", len(x.body),
	)

	return classify(x)
}

// do performs the POST. An error means the exchange did not complete.
func (c *Client) do(ctx context.Context, endpoint string, payload []byte) (exchange, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return exchange{}, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return exchange{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return exchange{}, fmt.Errorf("reading response body (status %d): %w", resp.StatusCode, err)
	}

	return exchange{status: resp.StatusCode, body: body}, nil
}

// endpoint builds {base}/v1beta/models/{model}:generateContent?key={apiKey}.
func (c *Client) endpoint(apiKey string) string {
	q := url.Values{}
	q.Set("key", apiKey)
	return fmt.Sprintf("%s/%s/models/%s:generateContent?%s",
		c.baseURL, apiVersion, c.model.APIModelName, q.Encode())
}

// redactKey hides the API key, including its URL-encoded form, in s.
func redactKey(s, apiKey string) string {
	if apiKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(apiKey), "REDACTED")
	return strings.ReplaceAll(s, apiKey, "REDACTED")
}
