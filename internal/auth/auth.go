// Package auth resolves requests to user identities: a JSON users file for
// credentials and an in-memory session store with opaque tokens.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User is one entry of the users file. IDs are opaque strings; numeric ids
// in the file are accepted and stringified.
type User struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

type fileUser struct {
	ID       any    `json:"id"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type session struct {
	user    User
	expires time.Time
}

// Service authenticates logins and tracks active sessions.
type Service struct {
	byLogin map[string]fileUser
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

// Load reads the users file. A missing file is not an error; it just means
// nobody can log in, matching an empty user list.
func Load(path string, ttl time.Duration) (*Service, error) {
	s := &Service{
		byLogin:  make(map[string]fileUser),
		ttl:      ttl,
		sessions: make(map[string]session),
	}
	if ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var users []fileUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	for _, u := range users {
		s.byLogin[u.Login] = u
	}
	return s, nil
}

// Authenticate checks credentials and returns the matched user.
func (s *Service) Authenticate(login, password string) (User, bool) {
	u, ok := s.byLogin[login]
	if !ok || u.Password != password {
		return User{}, false
	}
	return User{ID: stringID(u.ID), Login: u.Login}, true
}

// StartSession issues a fresh opaque token for the user.
func (s *Service) StartSession(u User) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{user: u, expires: time.Now().Add(s.ttl)}
	return token
}

// EndSession invalidates a token. Unknown tokens are ignored.
func (s *Service) EndSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// UserFor resolves a token to its user, expiring stale sessions on the way.
func (s *Service) UserFor(token string) (User, bool) {
	if token == "" {
		return User{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return User{}, false
	}
	if time.Now().After(sess.expires) {
		delete(s.sessions, token)
		return User{}, false
	}
	return sess.user, true
}

func stringID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		// JSON numbers; user ids are whole values
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprint(v)
	}
}
