package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"ragserver/internal/auth"
	"ragserver/internal/domain"
)

const multipartMemory = 32 << 20

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login or password is missing")
		return
	}
	user, ok := s.auth.Authenticate(req.Login, req.Password)
	if !ok {
		s.log.Warn("failed login attempt", "login", req.Login)
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}
	token := s.auth.StartSession(user)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Info("user logged in", "login", user.Login, "user", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.auth.EndSession(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user auth.User) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "no file part in the request")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 || headers[0].Filename == "" {
		writeError(w, http.StatusBadRequest, "no files selected")
		return
	}
	files := make([]domain.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: unreadable file part", h.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: unreadable file part", h.Filename))
			return
		}
		files = append(files, domain.Upload{Filename: h.Filename, Data: data})
	}

	summary, err := s.knowledge.Ingest(r.Context(), user.ID, files)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	msg := fmt.Sprintf("Indexed %d chunks from %d files.", summary.IndexedChunks, summary.IndexedFiles)
	if summary.IndexedChunks == 0 {
		msg = "Nothing to index."
	}
	if summary.SkippedFiles > 0 {
		msg += fmt.Sprintf(" Skipped files: %d.", summary.SkippedFiles)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        msg,
		"indexed_files":  summary.IndexedFiles,
		"skipped_files":  summary.SkippedFiles,
		"indexed_chunks": summary.IndexedChunks,
		"warnings":       summary.Warnings,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req struct {
		Query    string `json:"query"`
		NResults int    `json:"n_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.knowledge.Query(r.Context(), user.ID, req.Query, req.NResults)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request, user auth.User) {
	names, err := s.knowledge.ListFiles(r.Context(), user.ID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, user auth.User) {
	if err := s.knowledge.Reset(r.Context(), user.ID); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "knowledge base cleared"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, _ auth.User) {
	if s.realtime == nil {
		writeError(w, http.StatusInternalServerError, "realtime sessions are not configured")
		return
	}
	session, err := s.realtime.CreateSession(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
