package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatService answers natural-language questions about the stored data.
// The single implementation relays to an external NL-to-SQL service; the
// interface exists so the web adapter can be tested without a network.
type ChatService interface {
	// ChatWithData forwards the question and returns the upstream status
	// code and body verbatim. A non-nil error means the upstream could
	// not be reached at all, not a non-success status.
	ChatWithData(ctx context.Context, question string) (*ChatResult, error)
}

// ChatResult is an upstream response, relayed without interpretation.
type ChatResult struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered with a success status.
func (r *ChatResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client is the HTTP client for the Vanna text-to-SQL service. It holds no
// state, performs no retries, and applies no timeout beyond the transport
// default: it is a pure forwarding boundary.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the given base URL. An empty baseURL
// falls back to the local development default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{baseURL: baseURL, httpClient: http.DefaultClient}
}

func (c *Client) ChatWithData(ctx context.Context, question string) (*ChatResult, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, fmt.Errorf("marshal question: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/chat-with-data", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vanna request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	return &ChatResult{StatusCode: resp.StatusCode, Body: body}, nil
}
