// Package session issues and checks signed session tokens for guests, customers and staff.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "tailorshop"

// ErrInvalidToken is returned for malformed, expired, forged or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// Role is the access level carried by a session.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Session is the authenticated identity for one request. Subject is the
// customer id, a guest id or the admin email.
type Session struct {
	ID        string    `json:"-"`
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) IsAdmin() bool    { return s.Role == RoleAdmin }
func (s Session) IsCustomer() bool { return s.Role == RoleCustomer }

// RevocationStore remembers tokens invalidated before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID, subject string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Manager is the only owner of the session lifecycle: issue, parse, revoke.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  RevocationStore
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, store RevocationStore) *Manager {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, store: store, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a token for subject.
func (m *Manager) Issue(role Role, subject, email, name string) (string, Session, error) {
	if strings.TrimSpace(subject) == "" {
		return "", Session{}, errors.New("session subject required")
	}
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		Role:      role,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      name,
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	c := claims{
		Role:  s.Role,
		Email: s.Email,
		Name:  s.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, s, nil
}

// IssueGuest starts an anonymous session used to own a cart before sign-in.
func (m *Manager) IssueGuest() (string, Session, error) {
	return m.Issue(RoleGuest, "guest-"+uuid.NewString(), "", "")
}

// Parse validates token and returns its session.
func (m *Manager) Parse(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	switch c.Role {
	case RoleGuest, RoleCustomer, RoleAdmin:
	default:
		return Session{}, ErrInvalidToken
	}
	if m.store != nil && c.ID != "" {
		revoked, err := m.store.IsRevoked(ctx, c.ID)
		if err != nil {
			return Session{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return Session{}, ErrInvalidToken
		}
	}
	return Session{
		ID:        c.ID,
		Subject:   c.Subject,
		Role:      c.Role,
		Email:     c.Email,
		Name:      c.Name,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// Revoke invalidates s until its natural expiry.
func (m *Manager) Revoke(ctx context.Context, s Session) error {
	if m.store == nil || s.ID == "" {
		return nil
	}
	return m.store.Revoke(ctx, s.ID, s.Subject, s.ExpiresAt)
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
