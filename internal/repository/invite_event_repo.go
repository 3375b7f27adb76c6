package repository

import (
	"context"

	"zoolip/portal/internal/model"
)

type InviteEventRepository interface {
	Create(ctx context.Context, event *model.InviteEvent) error
	ListByEmail(ctx context.Context, email string, limit int) ([]model.InviteEvent, error)
}
