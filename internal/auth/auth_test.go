package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUsers(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.json"), time.Hour)
	require.NoError(t, err)

	_, ok := s.Authenticate("anyone", "anything")
	assert.False(t, ok)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeUsers(t, "{not json")
	_, err := Load(path, time.Hour)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	path := writeUsers(t, `[
		{"id": 1, "login": "ada", "password": "pw1"},
		{"id": "u-07", "login": "alan", "password": "pw2"}
	]`)
	s, err := Load(path, time.Hour)
	require.NoError(t, err)

	u, ok := s.Authenticate("ada", "pw1")
	require.True(t, ok)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "ada", u.Login)

	u, ok = s.Authenticate("alan", "pw2")
	require.True(t, ok)
	assert.Equal(t, "u-07", u.ID)

	_, ok = s.Authenticate("ada", "wrong")
	assert.False(t, ok)
	_, ok = s.Authenticate("ghost", "pw1")
	assert.False(t, ok)
}

func TestSessionRoundTrip(t *testing.T) {
	path := writeUsers(t, `[{"id": 1, "login": "ada", "password": "pw"}]`)
	s, err := Load(path, time.Hour)
	require.NoError(t, err)

	u, ok := s.Authenticate("ada", "pw")
	require.True(t, ok)

	token := s.StartSession(u)
	require.NotEmpty(t, token)

	got, ok := s.UserFor(token)
	require.True(t, ok)
	assert.Equal(t, u, got)

	// two sessions never share a token
	assert.NotEqual(t, token, s.StartSession(u))

	s.EndSession(token)
	_, ok = s.UserFor(token)
	assert.False(t, ok)

	// ending twice is harmless
	s.EndSession(token)
}

func TestUserForUnknownToken(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.json"), time.Hour)
	require.NoError(t, err)

	_, ok := s.UserFor("")
	assert.False(t, ok)
	_, ok = s.UserFor("bogus")
	assert.False(t, ok)
}

func TestSessionExpiry(t *testing.T) {
	path := writeUsers(t, `[{"id": 1, "login": "ada", "password": "pw"}]`)
	s, err := Load(path, time.Nanosecond)
	require.NoError(t, err)

	u, _ := s.Authenticate("ada", "pw")
	token := s.StartSession(u)

	time.Sleep(2 * time.Millisecond)
	_, ok := s.UserFor(token)
	assert.False(t, ok)
}
