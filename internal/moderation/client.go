package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPClassifier calls a JSON moderation endpoint. The endpoint
// receives {"title": ..., "description": ...} and answers with the
// Result schema. Any transport error, non-200 status, or schema
// violation is returned as an error so the gate can fail closed.
type HTTPClassifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var ErrUnavailable = errors.New("moderation classifier unavailable")

func NewHTTPClassifier(endpoint, apiKey string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type classifyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type classifyResponse struct {
	IsSafe *bool  `json:"is_safe"`
	Flags  Flags  `json:"flags"`
	Reason string `json:"reason"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, title, description string) (Result, error) {
	if c == nil || c.endpoint == "" {
		return Result{}, ErrUnavailable
	}

	payload, err := json.Marshal(classifyRequest{Title: title, Description: description})
	if err != nil {
		return Result{}, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if parsed.IsSafe == nil {
		return Result{}, fmt.Errorf("%w: response missing is_safe", ErrUnavailable)
	}

	return Result{
		IsSafe: *parsed.IsSafe,
		Flags:  parsed.Flags,
		Reason: parsed.Reason,
	}, nil
}
