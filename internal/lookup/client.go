package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Client checks a VIN against the external lookup service. A single GET is
// issued per call; there is no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// Lookup reports whether the lookup service knows the given VIN. Any non-200
// response and any transport failure are folded into "not found": the user is
// re-prompted either way and the service does not distinguish the two.
func (c *Client) Lookup(ctx context.Context, vin string) (bool, error) {
	reqURL := fmt.Sprintf("%s?vin=%s", c.baseURL, url.QueryEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("VIN lookup transport failure, treating as not found", zap.String("vin", vin), zap.Error(err))
		return false, nil
	}
	defer resp.Body.Close()
	// Only the status code matters, but the body must be drained for the
	// connection to be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("VIN not found by lookup service", zap.String("vin", vin), zap.Int("status", resp.StatusCode))
		return false, nil
	}
	return true, nil
}
