package fivem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const trackyBaseURL = "https://api.trackyserver.com/server"

// TrackyStatus is the subset of the TrackyServer payload the dashboard shows.
type TrackyStatus struct {
	Online     bool   `json:"online"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Uptime     string `json:"uptime"`
	Version    string `json:"version"`
	Map        string `json:"map"`
}

// TrackyClient queries the public TrackyServer API for live server status.
// The zero value is unusable; construct with NewTrackyClient.
type TrackyClient struct {
	serverID string
	apiKey   string
	baseURL  string
	client   *http.Client
}

func NewTrackyClient(serverID, apiKey string) *TrackyClient {
	return &TrackyClient{
		serverID: serverID,
		apiKey:   apiKey,
		baseURL:  trackyBaseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether the credentials needed to call the API are set.
func (c *TrackyClient) Configured() bool {
	return c != nil && c.serverID != "" && c.apiKey != ""
}

func (c *TrackyClient) Status(ctx context.Context) (*TrackyStatus, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("tracky client is not configured")
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, url.PathEscape(c.serverID), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracky request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracky request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracky responded with status %d", resp.StatusCode)
	}

	var status TrackyStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode tracky response: %w", err)
	}
	return &status, nil
}
