// Package realtime creates ephemeral voice-session credentials by passing a
// session request through to the realtime API. It is a collaborator of the
// retrieval core, not part of it.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type Config struct {
	BaseURL      string
	APIKeyEnv    string
	Model        string
	Voice        string
	Modalities   []string
	Instructions string
	Timeout      time.Duration
}

// Client requests realtime session secrets on behalf of authenticated users.
type Client struct {
	cfg    Config
	apiKey string
	client *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-realtime"
	}
	if cfg.Voice == "" {
		cfg.Voice = "marin"
	}
	if len(cfg.Modalities) == 0 {
		cfg.Modalities = []string{"audio", "text"}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{cfg: cfg, apiKey: key, client: &http.Client{Timeout: timeout}}, nil
}

// Session is the client-facing slice of a created realtime session.
type Session struct {
	ClientSecret string `json:"client_secret"`
	ExpiresAt    int64  `json:"expires_at"`
}

// CreateSession asks the realtime API for a session and extracts the client
// secret the browser needs.
func (c *Client) CreateSession(ctx context.Context) (Session, error) {
	payload := map[string]any{
		"model":        c.cfg.Model,
		"voice":        c.cfg.Voice,
		"modalities":   c.cfg.Modalities,
		"instructions": c.cfg.Instructions,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/realtime/sessions", bytes.NewReader(data))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("create realtime session: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("read realtime response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Session{}, fmt.Errorf("create realtime session: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	var out struct {
		ClientSecret struct {
			Value     string `json:"value"`
			ExpiresAt int64  `json:"expires_at"`
		} `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return Session{}, fmt.Errorf("decode realtime response: %w", err)
	}
	if out.ClientSecret.Value == "" {
		return Session{}, fmt.Errorf("realtime response carries no client secret")
	}
	return Session{ClientSecret: out.ClientSecret.Value, ExpiresAt: out.ClientSecret.ExpiresAt}, nil
}
