package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Client talks to a running cake API server.
type Client struct {
	target string
	http   *http.Client
}

// NewClient creates a client for the server at target, e.g.
// "http://localhost:8081". A nil httpClient uses http.DefaultClient.
func NewClient(target string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{target: target, http: httpClient}
}

// Chat sends one chat message.
func (c *Client) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a semantic search for the topK facts nearest to query.
func (c *Client) Search(ctx context.Context, query string, topK int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("top_k", strconv.Itoa(topK))

	var out SearchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/search", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	u, err := url.Parse(c.target)
	if err != nil {
		return fmt.Errorf("invalid API target URL: %w", err)
	}
	u.Path = path
	u.RawQuery = params.Encode()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to cake API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s failed (HTTP %d): %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s failed (HTTP %d): %s", method, path, resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
