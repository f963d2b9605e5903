package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

var ErrFetchFailed = errors.New("report service returned an error")

// Client fetches the report document for a verified VIN from the external
// report-generation service. Single attempt, no retry.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient, logger: logger}
}

// Fetch returns the raw report document (HTML) for vin.
func (c *Client) Fetch(ctx context.Context, vin string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s?key=%s&vin=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build report request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Report service returned non-OK status", zap.String("vin", vin), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report body: %w", err)
	}
	return body, nil
}
