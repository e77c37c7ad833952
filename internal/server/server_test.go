package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/auth"
	"ragserver/internal/domain"
	"ragserver/internal/embedding/hash"
	"ragserver/internal/extract"
	"ragserver/internal/service"
	"ragserver/internal/vectorindex/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	usersPath := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(usersPath,
		[]byte(`[{"id": 1, "login": "ada", "password": "pw"}]`), 0o600))
	authSvc, err := auth.Load(usersPath, time.Hour)
	require.NoError(t, err)

	knowledge := service.NewKnowledge(
		extract.NewRegistry(),
		hash.NewEmbedder(64),
		memory.NewIndex(),
		service.Limits{
			ChunkSize:      200,
			ChunkOverlap:   20,
			MaxFileBytes:   1 << 20,
			AllowedExts:    map[string]bool{".txt": true, ".md": true},
			DefaultResults: 3,
			MinResults:     1,
			MaxResults:     10,
		},
	)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(knowledge, authSvc, nil, log, Config{
		StaticDir:      t.TempDir(),
		AllowedOrigins: []string{"*"},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// login authenticates as ada and returns the session cookie.
func login(t *testing.T, ts *httptest.Server) *http.Cookie {
	t.Helper()
	resp, err := http.Post(ts.URL+"/login", "application/json",
		strings.NewReader(`{"login": "ada", "password": "pw"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func doJSON(t *testing.T, method, url, body string, cookie *http.Cookie) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	return resp, data
}

func uploadFiles(t *testing.T, ts *httptest.Server, cookie *http.Cookie, files map[string]string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	return resp, data
}

func TestRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/upload"},
		{http.MethodPost, "/query"},
		{http.MethodGet, "/files"},
		{http.MethodDelete, "/reset-knowledge-base"},
		{http.MethodGet, "/session"},
	} {
		resp, body := doJSON(t, route.method, ts.URL+route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, route.path)
		assert.Contains(t, string(body), "authorization required", route.path)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/login", `{"login": "ada", "password": "nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/login", `{"login": "ada"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadQueryFilesReset(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	resp, body := uploadFiles(t, ts, cookie, map[string]string{
		"notes.txt": "The capital of France is Paris. The Seine flows through it.",
		"skip.png":  "binary",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var upload struct {
		Message       string   `json:"message"`
		IndexedFiles  int      `json:"indexed_files"`
		SkippedFiles  int      `json:"skipped_files"`
		IndexedChunks int      `json:"indexed_chunks"`
		Warnings      []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &upload))
	assert.Equal(t, 1, upload.IndexedFiles)
	assert.Equal(t, 1, upload.SkippedFiles)
	assert.Equal(t, 1, upload.IndexedChunks)
	assert.Contains(t, upload.Message, "Indexed 1 chunks from 1 files.")
	assert.Contains(t, upload.Message, "Skipped files: 1.")
	assert.Contains(t, upload.Warnings, "skip.png: format not supported")

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/query",
		`{"query": "capital of France", "n_results": 3}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results []domain.QueryResult
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "notes.txt-0", results[0].ID)
	assert.Contains(t, results[0].Document, "Paris")
	assert.Equal(t, "notes.txt", results[0].Metadata.Filename)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/files", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files []string
	require.NoError(t, json.Unmarshal(body, &files))
	assert.Equal(t, []string{"notes.txt"}, files)

	resp, body = doJSON(t, http.MethodDelete, ts.URL+"/reset-knowledge-base", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "knowledge base cleared")

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/files", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files = nil
	require.NoError(t, json.Unmarshal(body, &files))
	assert.Empty(t, files)
}

func TestQueryEmptyTextIsClientError(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/query", `{"query": "   "}`, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "query text is missing")
}

func TestQueryEmptyIndexReturnsEmptyList(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/query", `{"query": "anything"}`, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestUploadNoFiles(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/logout", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/files", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionWithoutRealtime(t *testing.T) {
	ts := newTestServer(t)
	cookie := login(t, ts)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/session", "", cookie)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "realtime sessions are not configured")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/query", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
