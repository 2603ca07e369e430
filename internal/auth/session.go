package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 24 * time.Hour
)

// SessionManager owns the mapping from opaque session tokens to
// authenticated identities. The raw token goes to the client; only its
// SHA-256 hash is stored, so a leaked database dump cannot be replayed.
type SessionManager struct {
	store SessionStore
	ttl   time.Duration
}

func NewSessionManager(store SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	return &SessionManager{store: store, ttl: ttl}
}

// Create allocates session state for the account and returns the raw token.
func (m *SessionManager) Create(ctx context.Context, account *Account) (string, *Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, fmt.Errorf("generate session id: %w", err)
	}

	token, err := newSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &Session{
		ID:        id.String(),
		TokenHash: HashSessionToken(token),
		AccountID: account.ID,
		Username:  account.Username,
		Rank:      account.Rank,
		Name:      account.Name,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}

	if err := m.store.Create(ctx, session); err != nil {
		return "", nil, err
	}

	return token, session, nil
}

// Get resolves a raw token to its session. Expired sessions are destroyed on
// the way out and reported as not found.
func (m *SessionManager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := m.store.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		return nil, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		_ = m.store.DeleteByTokenHash(ctx, session.TokenHash)
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Destroy invalidates the session. Destroying an unknown token is not an
// error.
func (m *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	return m.store.DeleteByTokenHash(ctx, HashSessionToken(token))
}

func (m *SessionManager) IsAuthenticated(ctx context.Context, token string) bool {
	_, err := m.Get(ctx, token)
	return err == nil
}

func newSessionToken() (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashSessionToken maps a raw token to its storage key. Lookup by hash also
// keeps token comparison out of SQL string equality timing.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
