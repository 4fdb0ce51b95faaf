// Package session holds the signed-in session and user for this process.
package session

import (
	"sync"

	"github.com/navid-fn/coinview/internal/models"
)

// Store is the single owner of the current session and user. It starts
// empty. Values are replaced whole, never edited in place.
type Store struct {
	mu      sync.RWMutex
	session *models.Session
	user    *models.User
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetSession(session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// Set replaces session and user together.
func (s *Store) Set(session *models.Session, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
	s.user = user
}

// CompareAndSet replaces session and user only while the held session is
// still old. It reports whether the swap happened.
func (s *Store) CompareAndSet(old, session *models.Session, user *models.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session != old {
		return false
	}
	s.session = session
	s.user = user
	return true
}

func (s *Store) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Snapshot returns session and user read under one lock.
func (s *Store) Snapshot() (*models.Session, *models.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.user
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.user = nil
}
