package playback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rfidmusic/internal/services"
)

// HTTPDoer describes the HTTP client used by the playback client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Status reports what the playback host is doing.
type Status struct {
	IsPlaying            bool   `json:"is_playing"`
	MusicMountPath       string `json:"music_mount_path,omitempty"`
	MPVAvailable         bool   `json:"mpv_available"`
	MusicMountAccessible bool   `json:"music_mount_accessible"`
}

// Client triggers playback on the remote host that owns the audio player
// process. The host itself is an external collaborator; this client only
// issues requests and interprets status codes.
type Client struct {
	baseURL string
	timeout time.Duration
	client  HTTPDoer
}

// NewClient constructs a playback client. A nil doer falls back to
// http.DefaultClient.
func NewClient(baseURL string, timeout time.Duration, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		timeout: timeout,
		client:  doer,
	}
}

// Play asks the host to start playing the directory mapped to rfid.
func (c *Client) Play(ctx context.Context, rfid, musicDir string) error {
	payload, err := json.Marshal(map[string]string{"rfid": rfid, "music_dir": musicDir})
	if err != nil {
		return fmt.Errorf("encode play payload: %w", err)
	}
	return c.post(ctx, "/play", payload)
}

// Stop asks the host to stop the current playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "/stop", nil)
}

// GetStatus fetches the host's playback status.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(classifyDoErr(err), "playback", "status", "GET /status", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrProtocol, "playback", "status", fmt.Sprintf("host returned status %d", resp.StatusCode), nil)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, services.Wrap(services.ErrProtocol, "playback", "status", "decode response", err)
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body *bytes.Reader
	if payload == nil {
		body = bytes.NewReader(nil)
	} else {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build playback request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(classifyDoErr(err), "playback", "post", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrProtocol, "playback", "post", fmt.Sprintf("host returned status %d for %s", resp.StatusCode, path), nil)
	}
	return nil
}

// classifyDoErr separates deadline expiry from other transport failures.
func classifyDoErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.ErrTimeout
	}
	return services.ErrUnavailable
}
