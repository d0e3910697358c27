package mapper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rfidmusic/internal/logging"
	"rfidmusic/internal/services"
)

// HTTPDoer describes the HTTP client used by the mapper client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ScanResult is the consumer's answer to a submitted scan.
type ScanResult struct {
	Mapped            bool   `json:"mapped"`
	RFID              string `json:"rfid"`
	MusicDir          string `json:"music_dir,omitempty"`
	AlbumTitle        string `json:"album_title,omitempty"`
	Artist            string `json:"artist,omitempty"`
	PlaybackTriggered bool   `json:"playback_triggered,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Client talks to the mapping web service: a readiness wait at startup and
// per-scan submission afterwards.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	pollInterval   time.Duration
	client         HTTPDoer
	logger         *slog.Logger
}

// NewClient constructs a mapper client. A nil doer falls back to
// http.DefaultClient.
func NewClient(baseURL string, requestTimeout, pollInterval time.Duration, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		requestTimeout: requestTimeout,
		pollInterval:   pollInterval,
		client:         doer,
		logger:         logging.NewComponentLogger(logger, "mapper-client"),
	}
}

// Healthy reports whether the consumer's health endpoint answered 200.
// Transport failures and any other status read as not ready.
func (c *Client) Healthy(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitReady polls the health endpoint until it succeeds or ctx is cancelled.
// The wait is deliberately unbounded: the listener is useless without its
// consumer.
func (c *Client) WaitReady(ctx context.Context) error {
	for {
		if c.Healthy(ctx) {
			c.logger.Info("consumer is ready", logging.String("url", c.baseURL))
			return nil
		}
		c.logger.Info("consumer not available, retrying",
			logging.String("url", c.baseURL),
			logging.Duration("retry_in", c.pollInterval),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Submit delivers one validated identifier. Any transport error or
// non-success status is an error; the caller drops the identifier, delivery
// is never retried.
func (c *Client) Submit(ctx context.Context, rfid string) (*ScanResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"rfid": rfid})
	if err != nil {
		return nil, fmt.Errorf("encode scan payload: %w", err)
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/scan", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if scanID, ok := services.ScanIDFromContext(ctx); ok {
		req.Header.Set("X-Scan-ID", scanID)
	}
	if strategy, ok := services.StrategyFromContext(ctx); ok {
		req.Header.Set("X-Scan-Source", strategy)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "mapper", "submit", "POST /scan", err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "mapper", "submit", "POST /scan", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrProtocol, "mapper", "submit", fmt.Sprintf("consumer returned status %d", resp.StatusCode), nil)
	}

	var result ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, services.Wrap(services.ErrProtocol, "mapper", "submit", "decode scan response", err)
	}
	return &result, nil
}
