package service

import (
	"slices"
	"sync"

	domainauth "github.com/target/jobboard-ui-api/internal/domain/auth"
)

// SessionStore holds the session of one client application run.
// It is synchronous and safe for concurrent use. Set, Clear, AddSavedID and RemoveSavedID
// are the only mutators; readers get deep copies.
type SessionStore struct {
	mu      sync.RWMutex
	current *domainauth.Session

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewSessionStore creates a store, optionally hydrated with a cached session.
func NewSessionStore(initial *domainauth.Session) *SessionStore {
	s := &SessionStore{subs: make(map[int]chan struct{})}
	if initial != nil {
		sess := initial.Normalize()
		s.current = &sess
	}
	return s
}

// Current returns a copy of the session, or nil when signed out.
func (s *SessionStore) Current() *domainauth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := s.current.Clone()
	return &cp
}

// Present reports whether a session exists.
func (s *SessionStore) Present() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Set replaces the session wholesale. Saved ids are de-duplicated.
func (s *SessionStore) Set(sess domainauth.Session) {
	s.mu.Lock()
	n := sess.Normalize()
	s.current = &n
	s.mu.Unlock()
	s.notify()
}

// Clear removes the session. Clearing an absent session is a no-op.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	changed := s.current != nil
	s.current = nil
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// AddSavedID appends id to the saved list if it is not already there.
func (s *SessionStore) AddSavedID(id string) {
	s.mutate("", id, true)
}

// RemoveSavedID removes id from the saved list if present.
func (s *SessionStore) RemoveSavedID(id string) {
	s.mutate("", id, false)
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees at least one signal after the last change.
func (s *SessionStore) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// setMembership adds or removes id for the session of userID only.
// An empty userID matches any present session. It reports whether the saved list changed.
func (s *SessionStore) setMembership(userID, id string, member bool) bool {
	return s.mutate(userID, id, member)
}

func (s *SessionStore) mutate(userID, id string, member bool) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	cur := s.current
	if cur == nil || (userID != "" && cur.UserID != userID) {
		s.mu.Unlock()
		return false
	}

	has := slices.Contains(cur.Saved, id)
	switch {
	case member && !has:
		cur.Saved = append(slices.Clone(cur.Saved), id)
	case !member && has:
		cur.Saved = slices.DeleteFunc(slices.Clone(cur.Saved), func(v string) bool { return v == id })
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// replaceIfUser swaps in fn(current) while the session still belongs to userID.
func (s *SessionStore) replaceIfUser(userID string, fn func(domainauth.Session) domainauth.Session) bool {
	s.mu.Lock()
	if s.current == nil || s.current.UserID != userID {
		s.mu.Unlock()
		return false
	}
	next := fn(s.current.Clone()).Normalize()
	s.current = &next
	s.mu.Unlock()

	s.notify()
	return true
}

// clearIfUser clears the session only while it belongs to userID.
func (s *SessionStore) clearIfUser(userID string) bool {
	s.mu.Lock()
	if s.current == nil || s.current.UserID != userID {
		s.mu.Unlock()
		return false
	}
	s.current = nil
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *SessionStore) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
