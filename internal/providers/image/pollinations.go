package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxImageBytes bounds how much we are willing to read from the backend.
const maxImageBytes = 32 << 20

// PollinationsOptions configures the hosted image backend client.
type PollinationsOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// PollinationsClient fetches images from a pollinations.ai style endpoint
// where the prompt travels in the URL path and rendering parameters in the
// query string.
type PollinationsClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewPollinationsClient(opts PollinationsOptions) *PollinationsClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://image.pollinations.ai"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "flux"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PollinationsClient{httpClient: client, baseURL: base, model: model}
}

// Generate performs a single blocking image request. Transient failures are
// reported as errors; the caller decides on retries.
func (c *PollinationsClient) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("image: prompt is required")
	}
	query := url.Values{}
	query.Set("width", strconv.Itoa(req.Width))
	query.Set("height", strconv.Itoa(req.Height))
	query.Set("seed", strconv.FormatInt(req.Seed, 10))
	query.Set("nologo", "true")
	query.Set("model", c.model)
	endpoint := c.baseURL + "/prompt/" + url.PathEscape(prompt) + "?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("image: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image: empty response body")
	}
	return data, nil
}

var _ Generator = (*PollinationsClient)(nil)
