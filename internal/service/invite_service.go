package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"zoolip/portal/internal/invite"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/repository"
	"zoolip/portal/pkg/crypto"
)

// CreateInviteInput is what an administrator submits to invite someone.
type CreateInviteInput struct {
	Email        string
	Role         model.Role
	ExpiresIn    time.Duration // zero means the configured default
	SystemCookie string
	ActorID      string
	ActorRole    model.Role
}

type CreatedInvite struct {
	Token     string     `json:"token"`
	Link      string     `json:"link"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	ExpiresAt int64      `json:"expires_at"` // unix millis
	Mailed    bool       `json:"mailed"`
}

type InviteService interface {
	CreateInvite(ctx context.Context, in CreateInviteInput) (*CreatedInvite, error)
	InviteExists(ctx context.Context, email string) bool
	ValidateInvite(ctx context.Context, token string) (*invite.Validation, error)
	Sweep(ctx context.Context) int
	ListEvents(ctx context.Context, email string, limit int) ([]model.InviteEvent, error)
}

type InviteOptions struct {
	TTL         time.Duration
	MaxTTL      time.Duration
	LinkBaseURL string
	LinkPath    string
}

type inviteService struct {
	store   *invite.Store
	events  repository.InviteEventRepository
	mailer  InviteMailer
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    InviteOptions
}

// NewInviteService wires the invite store to its side effects. events and
// mailer are optional.
func NewInviteService(
	store *invite.Store,
	events repository.InviteEventRepository,
	mailer InviteMailer,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts InviteOptions,
) InviteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.MaxTTL < opts.TTL {
		opts.MaxTTL = opts.TTL
	}
	return &inviteService{
		store:   store,
		events:  events,
		mailer:  mailer,
		metrics: m,
		logger:  logger,
		opts:    opts,
	}
}

func (s *inviteService) CreateInvite(ctx context.Context, in CreateInviteInput) (*CreatedInvite, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, ErrInvalidEmail
	}
	email := invite.NormalizeEmail(addr.Address)

	if !slices.Contains(model.InvitableRoles(), in.Role) {
		return nil, ErrInvalidRole
	}
	if !slices.Contains(model.GrantableRoles(in.ActorRole), in.Role) {
		return nil, ErrRoleNotGrantable
	}

	ttl := in.ExpiresIn
	if ttl == 0 {
		ttl = s.opts.TTL
	}
	if ttl < 0 || ttl > s.opts.MaxTTL {
		return nil, ErrInvalidExpiry
	}

	if s.store.ExistingInvite(email) {
		return nil, ErrInviteAlreadyPending
	}

	expiresAt := s.store.Now().Add(ttl)
	token, err := s.store.AddInvite(email, in.Role, expiresAt, in.SystemCookie)
	if err != nil {
		s.logger.Error("failed to issue invite token", zap.Error(err))
		return nil, fmt.Errorf("add invite: %w", err)
	}

	s.metrics.InvitesCreatedTotal.Inc()
	s.metrics.InvitesStored.Set(float64(s.store.Len()))
	s.record(ctx, &model.InviteEvent{
		Kind:             model.InviteEventCreated,
		TokenFingerprint: crypto.Fingerprint(token),
		Email:            email,
		Role:             in.Role,
		ActorID:          in.ActorID,
	})

	created := &CreatedInvite{
		Token:     token,
		Link:      s.link(token),
		Email:     email,
		Role:      in.Role,
		ExpiresAt: expiresAt.UnixMilli(),
	}

	if s.mailer != nil {
		if err := s.mailer.SendInvite(ctx, email, created.Link, in.Role, expiresAt); err != nil {
			s.logger.Warn("failed to mail invite link",
				zap.String("email", email),
				zap.Error(err),
			)
		} else {
			created.Mailed = true
		}
	}

	s.logger.Info("invite created",
		zap.String("email", email),
		zap.String("role", string(in.Role)),
		zap.String("actor_id", in.ActorID),
		zap.Time("expires_at", expiresAt),
	)
	return created, nil
}

func (s *inviteService) InviteExists(_ context.Context, email string) bool {
	return s.store.ExistingInvite(email)
}

func (s *inviteService) ValidateInvite(ctx context.Context, token string) (*invite.Validation, error) {
	fingerprint := crypto.Fingerprint(token)

	v, err := s.store.ValidateToken(token)
	if err != nil {
		var invErr *invite.Error
		if errors.As(err, &invErr) {
			s.metrics.RecordInviteValidation(string(invErr.Kind))
			event := &model.InviteEvent{
				Kind:             model.InviteEventRejected,
				TokenFingerprint: fingerprint,
				Reason:           string(invErr.Kind),
			}
			// Expired and used invites are still stored; name the address.
			if inv, ok := s.store.Lookup(token); ok {
				event.Email = inv.Email
				event.Role = inv.Role
			}
			s.record(ctx, event)
			s.logger.Warn("invite validation rejected",
				zap.String("token_fp", fingerprint),
				zap.String("reason", string(invErr.Kind)),
			)
		}
		return nil, err
	}

	s.metrics.RecordInviteValidation("ok")
	s.record(ctx, &model.InviteEvent{
		Kind:             model.InviteEventRedeemed,
		TokenFingerprint: fingerprint,
		Email:            v.Email,
		Role:             v.Role,
	})
	s.logger.Info("invite redeemed",
		zap.String("token_fp", fingerprint),
		zap.String("email", v.Email),
		zap.String("role", string(v.Role)),
	)
	return v, nil
}

func (s *inviteService) Sweep(ctx context.Context) int {
	removed := s.store.CleanExpiredInvites()
	s.metrics.InvitesSweptTotal.Add(float64(removed))
	s.metrics.InvitesStored.Set(float64(s.store.Len()))
	if removed > 0 {
		s.record(ctx, &model.InviteEvent{Kind: model.InviteEventSwept, Count: removed})
	}
	s.logger.Debug("expired invites swept", zap.Int("removed", removed))
	return removed
}

func (s *inviteService) ListEvents(ctx context.Context, email string, limit int) ([]model.InviteEvent, error) {
	if s.events == nil {
		return nil, ErrAuditDisabled
	}
	return s.events.ListByEmail(ctx, email, limit)
}

// record writes an audit row. Audit failures never fail the invite flow.
func (s *inviteService) record(ctx context.Context, event *model.InviteEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("failed to record invite event",
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

func (s *inviteService) link(token string) string {
	q := url.Values{"token": {token}}
	return strings.TrimRight(s.opts.LinkBaseURL, "/") + s.opts.LinkPath + "?" + q.Encode()
}
