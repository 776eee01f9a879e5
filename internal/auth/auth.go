// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Principal is an authenticated user as reported by the identity boundary.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PrincipalStore holds known principals and their live sessions, keyed by
// principal id. Populated on first sign-in, read on every session check.
type PrincipalStore struct {
	mu         sync.RWMutex
	byID       map[string]Principal
	byEmail    map[string]string // email -> principal id
	activeJTIs map[string]string // session id -> principal id
}

func NewPrincipalStore() *PrincipalStore {
	return &PrincipalStore{
		byID:       make(map[string]Principal),
		byEmail:    make(map[string]string),
		activeJTIs: make(map[string]string),
	}
}

// Upsert returns the existing principal for the email or creates one.
func (s *PrincipalStore) Upsert(email, name string) Principal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		p := s.byID[id]
		if name != "" && p.Name != name {
			p.Name = name
			s.byID[id] = p
		}
		return p
	}
	p := Principal{ID: uuid.NewString(), Email: email, Name: name}
	s.byID[p.ID] = p
	s.byEmail[email] = p.ID
	return p
}

func (s *PrincipalStore) Get(id string) (Principal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	return p, ok
}

func (s *PrincipalStore) addSession(jti, principalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeJTIs[jti] = principalID
}

func (s *PrincipalStore) sessionActive(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.activeJTIs[jti]
	return ok
}

func (s *PrincipalStore) revokeSession(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.activeJTIs, jti)
}

// Manager issues and verifies bearer-token sessions.
type Manager struct {
	secret []byte
	ttl    time.Duration
	Store  *PrincipalStore
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		Store:  NewPrincipalStore(),
	}
}

// Login records the principal and issues a signed session token.
func (m *Manager) Login(email, name string) (string, Principal, error) {
	p := m.Store.Upsert(email, name)
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   p.ID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Principal{}, err
	}

	m.Store.addSession(jti, p.ID)
	return token, p, nil
}

// Verify validates the token and resolves its principal. A logged-out
// session fails even if the token itself has not expired.
func (m *Manager) Verify(tokenString string) (*Principal, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if !m.Store.sessionActive(claims.ID) {
		return nil, ErrInvalidSession
	}
	p, ok := m.Store.Get(claims.Subject)
	if !ok {
		return nil, ErrInvalidSession
	}
	return &p, nil
}

// Logout revokes the token's session. Unknown tokens are a no-op.
func (m *Manager) Logout(tokenString string) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return
	}
	m.Store.revokeSession(claims.ID)
}

func (m *Manager) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
