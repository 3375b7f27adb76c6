package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of a portal session token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type Manager struct {
	signingKey []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

func NewManager(signingKey string, issuer string, sessionTTL time.Duration) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL is the lifetime of tokens issued by GenerateSessionToken.
func (m *Manager) SessionTTL() time.Duration { return m.sessionTTL }

// GenerateSessionToken creates a signed HS256 session token.
func (m *Manager) GenerateSessionToken(subject, email, role string) (string, *Claims, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.sessionTTL)),
			ID:        uuid.New().String(),
		},
		Email: email,
		Role:  role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

// Validate parses and validates a token string, returning claims.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.signingKey, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Issuer != m.issuer {
		return nil, errors.New("invalid issuer")
	}

	return claims, nil
}
