package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"zoolip/portal/internal/model"
)

const defaultEventLimit = 50

type pgInviteEventRepository struct {
	db *gorm.DB
}

func NewPGInviteEventRepository(db *gorm.DB) InviteEventRepository {
	return &pgInviteEventRepository{db: db}
}

func (r *pgInviteEventRepository) Create(ctx context.Context, event *model.InviteEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *pgInviteEventRepository) ListByEmail(ctx context.Context, email string, limit int) ([]model.InviteEvent, error) {
	if limit <= 0 || limit > defaultEventLimit {
		limit = defaultEventLimit
	}
	var events []model.InviteEvent
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
