package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EdgeChannel talks to a trusted edge node over HTTP. The edge only ever
// sees the wire envelope; when encryption is on, the caller swaps the
// plaintext content for ciphertext before handing the envelope over.
type EdgeChannel struct {
	baseURL    string
	httpClient *http.Client
}

type edgeRequest struct {
	Data    *Envelope `json:"data"`
	Session string    `json:"session"`
}

type edgeResponse struct {
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
	Processed bool   `json:"processed"`
	Fallback  bool   `json:"fallback"`
}

// NewEdgeChannel creates an edge channel for the given endpoint.
func NewEdgeChannel(baseURL string, timeout time.Duration) *EdgeChannel {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &EdgeChannel{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Kind returns the channel kind.
func (c *EdgeChannel) Kind() string {
	return KindEdge
}

// Send posts the envelope to the edge node. Any non-2xx status, timeout,
// or network error is uniformly a failure; the fallback loop decides what
// happens next.
func (c *EdgeChannel) Send(ctx context.Context, env *Envelope) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("edge endpoint not configured")
	}

	body, err := json.Marshal(edgeRequest{Data: env, Session: env.SessionID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/process", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("edge error (status %d)", resp.StatusCode)
	}

	var edgeResp edgeResponse
	if err := json.Unmarshal(respBody, &edgeResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	// An edge that answers with fallback:true took the message but declined
	// to process it; treat it the same as processed and let the payload
	// speak for itself.
	return edgeResp.Response, nil
}
