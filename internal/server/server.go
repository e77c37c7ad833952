// Package server exposes the knowledge service over HTTP: login/logout,
// upload, query, file listing, reset and the realtime session pass-through.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"ragserver/internal/auth"
	"ragserver/internal/domain"
	"ragserver/internal/realtime"
)

const sessionCookie = "rag_session"

// Config holds the HTTP-layer settings.
type Config struct {
	StaticDir      string
	AllowedOrigins []string
}

// Server wires handlers to the application core and its collaborators.
type Server struct {
	knowledge domain.Knowledge
	auth      *auth.Service
	realtime  *realtime.Client
	log       *slog.Logger
	cfg       Config
}

// New creates the server. realtime may be nil when voice sessions are not
// configured; the /session route then reports failure instead of panicking.
func New(knowledge domain.Knowledge, authSvc *auth.Service, rt *realtime.Client, log *slog.Logger, cfg Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{knowledge: knowledge, auth: authSvc, realtime: rt, log: log, cfg: cfg}
}

// Handler builds the route table with recovery, logging and CORS applied to
// every request.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("POST /upload", s.requireUser(s.handleUpload))
	mux.Handle("POST /query", s.requireUser(s.handleQuery))
	mux.Handle("GET /files", s.requireUser(s.handleFiles))
	mux.Handle("DELETE /reset-knowledge-base", s.requireUser(s.handleReset))
	mux.Handle("GET /session", s.requireUser(s.handleSession))

	mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))

	return s.withRecover(s.withCORS(s.withLogging(mux)))
}

// currentUser resolves the session cookie to a user, if any.
func (s *Server) currentUser(r *http.Request) (auth.User, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return auth.User{}, false
	}
	return s.auth.UserFor(c.Value)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.currentUser(r); !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "agent.html"))
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.cfg.StaticDir, "login.html"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps the error taxonomy to a status: client input errors get
// their message back with a 400, everything else is a generic 500.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("request failed", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
