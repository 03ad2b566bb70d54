package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const CookieName = "parity_stake_session"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrUnknown      = errors.New("session not found or disconnected")
)

type claims struct {
	Address string `json:"addr"`
	jwt.StandardClaims
}

type entry struct {
	address   common.Address
	expiresAt time.Time
}

// Manager issues signed session tokens and tracks which sessions are still
// connected. A token for a disconnected session no longer resolves.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]entry
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]entry),
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Connect binds address to a new session and returns it with its token.
func (m *Manager) Connect(address common.Address) (Session, string, error) {
	id := uuid.New().String()
	now := m.now()
	expiresAt := now.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Address: address.Hex(),
		StandardClaims: jwt.StandardClaims{
			Id:        id,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = entry{address: address, expiresAt: expiresAt}
	m.mu.Unlock()

	addr := address
	return Session{ID: id, Address: &addr}, signed, nil
}

// Resolve verifies token and returns the connected session it refers to.
func (m *Manager) Resolve(token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	m.mu.RLock()
	e, ok := m.sessions[c.Id]
	m.mu.RUnlock()
	if !ok {
		return Session{}, ErrUnknown
	}
	if !m.now().Before(e.expiresAt) {
		m.Disconnect(c.Id)
		return Session{}, ErrUnknown
	}
	if e.address.Hex() != c.Address {
		return Session{}, ErrInvalidToken
	}

	addr := e.address
	return Session{ID: c.Id, Address: &addr}, nil
}

// Disconnect forgets the session. Unknown ids are ignored.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Prune drops expired sessions and returns how many were removed.
func (m *Manager) Prune() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Active returns the number of connected sessions
func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
