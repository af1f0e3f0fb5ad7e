// Package session owns the process-wide authentication state: the bearer
// credential and the signed-in user profile. State survives restarts via
// the local store and is observable through subscriptions so the display
// layer can react to login, logout and forced expiry.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dataviz-pro/vizx/pkg/api"
	"github.com/dataviz-pro/vizx/pkg/localstore"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Fixed local-store keys, shared with earlier clients of the same API.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Session is an authenticated credential plus its user profile.
type Session struct {
	Token string
	User  api.User
}

// Listener observes session changes. active is false after Clear.
type Listener func(s Session, active bool)

// Manager serializes all access to the session state.
type Manager struct {
	mu      sync.RWMutex
	store   localstore.Store
	logger  *zap.Logger
	current *Session
	subs    map[int]Listener
	nextSub int
}

// NewManager builds a manager backed by store and restores any persisted
// session. A corrupt persisted profile is discarded rather than surfaced.
func NewManager(store localstore.Store, logger *zap.Logger) *Manager {
	m := &Manager{
		store:  store,
		logger: logger,
		subs:   map[int]Listener{},
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	token, ok, err := m.store.Get(KeyToken)
	if err != nil {
		m.logger.Warn("Unable to read persisted session", zap.Error(err))
		return
	}
	if !ok || len(token) == 0 {
		return
	}

	s := Session{Token: string(token)}
	if raw, ok, err := m.store.Get(KeyUser); err == nil && ok {
		if uErr := json.Unmarshal(raw, &s.User); uErr != nil {
			m.logger.Warn("Discarding corrupt persisted user profile", zap.Error(uErr))
			_ = m.store.Delete(KeyToken)
			_ = m.store.Delete(KeyUser)
			return
		}
	}
	m.current = &s
}

// Get returns the current session, if any.
func (m *Manager) Get() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Token returns the current bearer credential, if any. It satisfies the
// gateway's Sessions dependency.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return m.current.Token, true
}

// Set installs a new session, persists it and notifies subscribers.
func (m *Manager) Set(s Session) error {
	m.mu.Lock()
	if err := m.store.Put(KeyToken, []byte(s.Token)); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist session token: %w", err)
	}
	raw, err := json.Marshal(s.User)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("encode user profile: %w", err)
	}
	if err := m.store.Put(KeyUser, raw); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist user profile: %w", err)
	}
	m.current = &s
	listeners := m.listeners()
	m.mu.Unlock()

	for _, l := range listeners {
		l(s, true)
	}
	return nil
}

// Clear drops the session from memory and the local store and notifies
// subscribers. Clearing an empty session is a no-op for subscribers.
func (m *Manager) Clear() error {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	err1 := m.store.Delete(KeyToken)
	err2 := m.store.Delete(KeyUser)
	listeners := m.listeners()
	m.mu.Unlock()

	if hadSession {
		for _, l := range listeners {
			l(Session{}, false)
		}
	}
	if err1 != nil {
		return fmt.Errorf("clear session token: %w", err1)
	}
	if err2 != nil {
		return fmt.Errorf("clear user profile: %w", err2)
	}
	return nil
}

// Subscribe registers a listener for session changes and returns its
// unsubscribe function.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// listeners snapshots the subscriber set; callers hold m.mu.
func (m *Manager) listeners() []Listener {
	out := make([]Listener, 0, len(m.subs))
	for _, l := range m.subs {
		out = append(out, l)
	}
	return out
}

// Expiry reports the expiry claim of the current credential without
// verifying its signature; the server remains the authority, this only
// lets the display warn ahead of time.
func (m *Manager) Expiry() (time.Time, bool) {
	token, ok := m.Token()
	if !ok {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
