// Package orbiter drives a running relief server from outside: it reads
// the scene status and walks the light around the map on a circular orbit.
package orbiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/relief/internal/lighting"
)

// SceneStatus mirrors the scene part of GET /api/v1/status.
type SceneStatus struct {
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Seed     int64          `json:"seed"`
	Anchor   string         `json:"anchor"`
	Light    lighting.Light `json:"light"`
	Lighting lighting.Stats `json:"lighting"`
	MaxElev  float32        `json:"max_elevation"`
	Moves    uint64         `json:"moves"`
}

type statusResponse struct {
	Name  string      `json:"name"`
	Scene SceneStatus `json:"scene"`
}

// Observer reads scene state from the public API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer for the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Observe fetches the current scene status.
func (o *Observer) Observe(ctx context.Context) (*SceneStatus, error) {
	var resp statusResponse
	if err := o.fetchJSON(ctx, "/api/v1/status", &resp); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return &resp.Scene, nil
}

func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Ready reports whether the status endpoint answers 200.
func (o *Observer) Ready(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+"/api/v1/status", nil)
	if err != nil {
		return false
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
