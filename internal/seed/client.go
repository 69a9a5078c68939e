package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client calls the scoreline HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body) }

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// Health checks the metrics endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

// Stats fetches /stats.
func (c *Client) Stats(ctx context.Context) (ServiceStats, error) {
	var s ServiceStats
	_, err := c.do(ctx, http.MethodGet, "/stats", nil, &s)
	return s, err
}

// Games fetches /games.
func (c *Client) Games(ctx context.Context) ([]Game, error) {
	var games []Game
	_, err := c.do(ctx, http.MethodGet, "/games", nil, &games)
	return games, err
}

// SubmitPredictions posts one prediction submission.
func (c *Client) SubmitPredictions(ctx context.Context, s Submission) (Receipt, error) {
	var r Receipt
	_, err := c.do(ctx, http.MethodPost, "/predictions", s, &r)
	return r, err
}

// SubmitResult posts one result.
func (c *Client) SubmitResult(ctx context.Context, b ResultBody) (Receipt, error) {
	var r Receipt
	_, err := c.do(ctx, http.MethodPost, "/results", b, &r)
	return r, err
}

// Rank fetches /rank/{userID}.
func (c *Client) Rank(ctx context.Context, userID string) (Standing, error) {
	var s Standing
	_, err := c.do(ctx, http.MethodGet, "/rank/"+userID, nil, &s)
	return s, err
}

// Leaderboard fetches the first n standings.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Standing, error) {
	var out []Standing
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", n), nil, &out)
	return out, err
}
