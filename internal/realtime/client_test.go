package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("TEST_RT_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_RT_KEY"})
	assert.Error(t, err)
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/realtime/sessions", r.URL.Path)
		require.Equal(t, "Bearer rt-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-realtime", body["model"])
		assert.Equal(t, "marin", body["voice"])

		w.Write([]byte(`{"id": "sess_1", "client_secret": {"value": "ek_abc", "expires_at": 1756400000}}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_RT_KEY", "rt-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_RT_KEY"})
	require.NoError(t, err)

	sess, err := c.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ek_abc", sess.ClientSecret)
	assert.Equal(t, int64(1756400000), sess.ExpiresAt)
}

func TestCreateSessionUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid model"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	t.Setenv("TEST_RT_KEY", "rt-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_RT_KEY"})
	require.NoError(t, err)

	_, err = c.CreateSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid model")
}

func TestCreateSessionMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "sess_1"}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_RT_KEY", "rt-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_RT_KEY"})
	require.NoError(t, err)

	_, err = c.CreateSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no client secret")
}
