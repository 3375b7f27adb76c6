// Package invite keeps the pending administrator invitations of the process.
//
// Invites live only in memory; a restart discards every outstanding token.
package invite

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"zoolip/portal/internal/model"
	"zoolip/portal/pkg/crypto"
)

const (
	// TokenBytes is the entropy of a token; the hex form is twice as long.
	TokenBytes = 16

	defaultMaxAttempts = 5
)

// Invite is one outstanding invitation.
type Invite struct {
	Token        string
	Email        string
	Role         model.Role
	Used         bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
	SystemCookie string
}

func (i *Invite) expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i *Invite) pending(now time.Time) bool {
	return !i.Used && !i.expired(now)
}

// Validation is the result of a successful redemption.
type Validation struct {
	Email        string
	Role         model.Role
	ExpiresAt    time.Time
	Valid        bool
	SystemCookie string
}

// Store is safe for concurrent use. The canonical key is the token; byEmail
// points each address at its newest token.
type Store struct {
	mu      sync.Mutex
	invites map[string]*Invite
	byEmail map[string]string

	now         func() time.Time
	random      io.Reader
	maxAttempts int
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom replaces crypto/rand as the token source.
func WithRandom(r io.Reader) Option {
	return func(s *Store) {
		if r != nil {
			s.random = r
		}
	}
}

// WithMaxAttempts bounds token generation retries on collision.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		invites:     make(map[string]*Invite),
		byEmail:     make(map[string]string),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail is the form under which addresses are indexed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GenerateToken returns a token that is not currently stored.
func (s *Store) GenerateToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generateLocked()
}

func (s *Store) generateLocked() (string, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		token, err := crypto.RandomHex(s.random, TokenBytes)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
		}
		if _, taken := s.invites[token]; !taken {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: %d collisions", ErrTokenGeneration, s.maxAttempts)
}

// AddInvite stores a new unused invite and returns its token.
func (s *Store) AddInvite(email string, role model.Role, expiresAt time.Time, systemCookie string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.generateLocked()
	if err != nil {
		return "", err
	}

	email = NormalizeEmail(email)
	s.invites[token] = &Invite{
		Token:        token,
		Email:        email,
		Role:         role,
		CreatedAt:    s.now(),
		ExpiresAt:    expiresAt,
		SystemCookie: systemCookie,
	}
	s.byEmail[email] = token
	return token, nil
}

// ExistingInvite reports whether email has an invite that is neither used
// nor expired.
func (s *Store) ExistingInvite(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return false
	}
	inv, ok := s.invites[token]
	return ok && inv.pending(s.now())
}

// ValidateToken redeems token. The lookup, the checks and the used flag flip
// happen under one lock, so a token is redeemed at most once.
func (s *Store) ValidateToken(token string) (*Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invites[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if inv.expired(s.now()) {
		return nil, ErrTokenExpired
	}
	if inv.Used {
		return nil, ErrTokenAlreadyUsed
	}

	inv.Used = true
	return &Validation{
		Email:        inv.Email,
		Role:         inv.Role,
		ExpiresAt:    inv.ExpiresAt,
		Valid:        true,
		SystemCookie: inv.SystemCookie,
	}, nil
}

// Lookup returns a copy of the invite stored under token.
func (s *Store) Lookup(token string) (Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invites[token]
	if !ok {
		return Invite{}, false
	}
	return *inv, true
}

// CleanExpiredInvites deletes every expired invite and returns how many
// were removed. Nothing calls it automatically.
func (s *Store) CleanExpiredInvites() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, inv := range s.invites {
		if !inv.expired(now) {
			continue
		}
		delete(s.invites, token)
		if s.byEmail[inv.Email] == token {
			delete(s.byEmail, inv.Email)
		}
		removed++
	}
	return removed
}

// Len is the number of stored invites, including used ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invites)
}

// Now is the store's clock, so callers compute expiries on the same time base.
func (s *Store) Now() time.Time {
	return s.now()
}
