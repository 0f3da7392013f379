// Package reward issues and fetches capture-the-flag reward tokens for
// finished encounters.
package reward

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

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

// Request asks the issuer for a reward.
type Request struct {
	IdentifyingPath string          `json:"identifyingPath"`
	User            string          `json:"user"`
	Score           int             `json:"score"`
	Outcome         anomaly.Outcome `json:"outcome"`
}

// Response carries the token, which is empty when no reward was issued.
type Response struct {
	RewardToken string `json:"reward_token,omitempty"`
}

// maxResponseBytes bounds the body read from the issuer.
const maxResponseBytes = 64 << 10

// Client calls a remote issuer over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client posting to url.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("RewardClient"),
	}
}

// Issue posts the request. Transport failures, non-2xx statuses and malformed
// bodies are errors; a body without a token is not.
func (c *Client) Issue(ctx context.Context, req Request) (Response, error) {
	log := c.logger.With(zap.String("path", req.IdentifyingPath), zap.String("outcome", string(req.Outcome)))

	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal reward request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create reward request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("Reward issuer unreachable", zap.Error(err))
		return Response{}, fmt.Errorf("failed to reach reward issuer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read reward response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Reward issuer returned non-2xx status", zap.Int("status_code", resp.StatusCode))
		return Response{}, fmt.Errorf("%w: status %d", ErrIssuerStatus, resp.StatusCode)
	}

	var out Response
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn("Malformed reward response", zap.Error(err))
		return Response{}, fmt.Errorf("failed to decode reward response: %w", err)
	}
	log.Debug("Reward response received", zap.Bool("issued", out.RewardToken != ""))
	return out, nil
}
