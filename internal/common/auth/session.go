// internal/common/auth/session.go
package auth

import "sync"

// Profile is the basic identity information used to prefill the form.
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Session is the capability surface the form needs from the identity provider.
type Session interface {
	CurrentToken() string
	CurrentProfile() Profile
	OnLogout()
}

// StaticSession serves a fixed token and profile, e.g. one supplied on the command line.
type StaticSession struct {
	mu       sync.RWMutex
	token    string
	profile  Profile
	onLogout func()
}

func NewStaticSession(token string, profile Profile) *StaticSession {
	return &StaticSession{token: token, profile: profile}
}

// SetLogoutHook registers a callback run after the token is dropped.
func (s *StaticSession) SetLogoutHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

func (s *StaticSession) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *StaticSession) CurrentProfile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *StaticSession) OnLogout() {
	s.mu.Lock()
	s.token = ""
	hook := s.onLogout
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}
