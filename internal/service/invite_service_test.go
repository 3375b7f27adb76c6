package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zoolip/portal/internal/invite"
	"zoolip/portal/internal/metrics"
	"zoolip/portal/internal/model"
	"zoolip/portal/internal/repository"
)

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.InviteEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepo) ListByEmail(ctx context.Context, email string, limit int) ([]model.InviteEvent, error) {
	args := m.Called(ctx, email, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InviteEvent), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendInvite(ctx context.Context, to string, link string, role model.Role, expiresAt time.Time) error {
	args := m.Called(ctx, to, link, role, expiresAt)
	return args.Error(0)
}

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestInviteService(t *testing.T, events *mockEventRepo, mailer *mockMailer) (InviteService, *invite.Store, *metrics.Metrics) {
	t.Helper()
	now := testNow
	store := invite.New(invite.WithClock(func() time.Time { return now }))
	m := metrics.New("test", nil)

	var ev repository.InviteEventRepository
	if events != nil {
		ev = events
	}
	var ml InviteMailer
	if mailer != nil {
		ml = mailer
	}
	svc := NewInviteService(store, ev, ml, m, nil, InviteOptions{
		TTL:         7 * 24 * time.Hour,
		MaxTTL:      30 * 24 * time.Hour,
		LinkBaseURL: "https://zoolip.example/",
		LinkPath:    "/register/admin",
	})
	return svc, store, m
}

func TestInviteService_CreateAndValidate(t *testing.T) {
	svc, store, m := newTestInviteService(t, nil, nil)
	ctx := context.Background()

	created, err := svc.CreateInvite(ctx, CreateInviteInput{
		Email:        "Alice@Example.com",
		Role:         model.RoleAdmin,
		SystemCookie: "sys-cookie",
		ActorID:      "7",
		ActorRole:    model.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Len(t, created.Token, 32)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, testNow.Add(7*24*time.Hour).UnixMilli(), created.ExpiresAt)
	assert.False(t, created.Mailed)

	link, err := url.Parse(created.Link)
	require.NoError(t, err)
	assert.Equal(t, "zoolip.example", link.Host)
	assert.Equal(t, "/register/admin", link.Path)
	assert.Equal(t, created.Token, link.Query().Get("token"))

	assert.True(t, svc.InviteExists(ctx, "alice@example.com"))

	v, err := svc.ValidateInvite(ctx, created.Token)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "alice@example.com", v.Email)
	assert.Equal(t, model.RoleAdmin, v.Role)
	assert.Equal(t, "sys-cookie", v.SystemCookie)

	_, err = svc.ValidateInvite(ctx, created.Token)
	require.ErrorIs(t, err, invite.ErrTokenAlreadyUsed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvitesCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InviteValidationsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InviteValidationsTotal.WithLabelValues(string(invite.KindTokenAlreadyUsed))))
	assert.Equal(t, 1, store.Len())
}

func TestInviteService_CreateInvite_Rejections(t *testing.T) {
	svc, _, _ := newTestInviteService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "not-an-email", Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "a@example.com", Role: model.RoleUser})
	require.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "a@example.com", Role: model.RoleAdmin, ExpiresIn: 60 * 24 * time.Hour})
	require.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "a@example.com", Role: model.RoleAdmin, ExpiresIn: -time.Hour})
	require.ErrorIs(t, err, ErrInvalidExpiry)

	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "a@example.com", Role: model.RoleAdmin, ExpiresIn: 12 * time.Hour})
	require.NoError(t, err)
	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "A@example.com", Role: model.RoleSystem})
	require.ErrorIs(t, err, ErrInviteAlreadyPending)
}

func TestInviteService_CreateInvite_GrantRules(t *testing.T) {
	svc, store, _ := newTestInviteService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleAdmin, Email: "ops@example.com", Role: model.RoleSystem})
	require.ErrorIs(t, err, ErrRoleNotGrantable)
	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleAdoptante, Email: "ops@example.com", Role: model.RoleAdmin})
	require.ErrorIs(t, err, ErrRoleNotGrantable)
	assert.Equal(t, 0, store.Len())

	_, err = svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "ops@example.com", Role: model.RoleSystem})
	require.NoError(t, err)
}

func TestInviteService_AuditAndMail(t *testing.T) {
	events := new(mockEventRepo)
	mailer := new(mockMailer)
	svc, _, _ := newTestInviteService(t, events, mailer)
	ctx := context.Background()

	events.On("Create", ctx, mock.MatchedBy(func(e *model.InviteEvent) bool {
		return e.Kind == model.InviteEventCreated && e.Email == "bob@example.com" && len(e.TokenFingerprint) == 43
	})).Return(nil).Once()
	mailer.On("SendInvite", ctx, "bob@example.com", mock.AnythingOfType("string"), model.RoleAdmin, testNow.Add(7*24*time.Hour)).
		Return(nil).Once()

	created, err := svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "bob@example.com", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, created.Mailed)

	events.On("Create", ctx, mock.MatchedBy(func(e *model.InviteEvent) bool {
		return e.Kind == model.InviteEventRejected && e.Reason == string(invite.KindTokenNotFound)
	})).Return(errors.New("db down")).Once()

	_, err = svc.ValidateInvite(ctx, "unknown")
	require.ErrorIs(t, err, invite.ErrTokenNotFound, "audit failure does not change the result")

	events.On("Create", ctx, mock.MatchedBy(func(e *model.InviteEvent) bool {
		return e.Kind == model.InviteEventRedeemed && e.Email == "bob@example.com"
	})).Return(nil).Once()
	events.On("Create", ctx, mock.MatchedBy(func(e *model.InviteEvent) bool {
		return e.Kind == model.InviteEventRejected &&
			e.Reason == string(invite.KindTokenAlreadyUsed) &&
			e.Email == "bob@example.com" && e.Role == model.RoleAdmin
	})).Return(nil).Once()

	_, err = svc.ValidateInvite(ctx, created.Token)
	require.NoError(t, err)
	_, err = svc.ValidateInvite(ctx, created.Token)
	require.ErrorIs(t, err, invite.ErrTokenAlreadyUsed)

	events.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestInviteService_MailFailureKeepsInvite(t *testing.T) {
	mailer := new(mockMailer)
	svc, store, _ := newTestInviteService(t, nil, mailer)
	ctx := context.Background()

	mailer.On("SendInvite", ctx, "carol@example.com", mock.Anything, model.RoleSystem, mock.Anything).
		Return(errors.New("smtp unreachable"))

	created, err := svc.CreateInvite(ctx, CreateInviteInput{ActorRole: model.RoleSystem, Email: "carol@example.com", Role: model.RoleSystem})
	require.NoError(t, err)
	assert.False(t, created.Mailed)
	assert.Equal(t, 1, store.Len())
}

func TestInviteService_Sweep(t *testing.T) {
	events := new(mockEventRepo)
	svc, store, m := newTestInviteService(t, events, nil)
	ctx := context.Background()

	_, err := store.AddInvite("old@example.com", model.RoleAdmin, testNow.Add(-time.Minute), "")
	require.NoError(t, err)
	_, err = store.AddInvite("new@example.com", model.RoleAdmin, testNow.Add(time.Minute), "")
	require.NoError(t, err)

	events.On("Create", ctx, mock.MatchedBy(func(e *model.InviteEvent) bool {
		return e.Kind == model.InviteEventSwept && e.Count == 1
	})).Return(nil).Once()

	assert.Equal(t, 1, svc.Sweep(ctx))
	assert.Equal(t, 0, svc.Sweep(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvitesSweptTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvitesStored))
	events.AssertExpectations(t)
}

func TestInviteService_ListEvents(t *testing.T) {
	svc, _, _ := newTestInviteService(t, nil, nil)
	_, err := svc.ListEvents(context.Background(), "a@example.com", 10)
	require.ErrorIs(t, err, ErrAuditDisabled)

	events := new(mockEventRepo)
	svc, _, _ = newTestInviteService(t, events, nil)
	want := []model.InviteEvent{{Kind: model.InviteEventCreated, Email: "a@example.com"}}
	events.On("ListByEmail", mock.Anything, "a@example.com", 10).Return(want, nil)

	got, err := svc.ListEvents(context.Background(), "a@example.com", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
