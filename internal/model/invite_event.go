package model

import (
	"time"

	"github.com/google/uuid"
)

type InviteEventKind string

const (
	InviteEventCreated  InviteEventKind = "created"
	InviteEventRedeemed InviteEventKind = "redeemed"
	InviteEventRejected InviteEventKind = "rejected"
	InviteEventSwept    InviteEventKind = "swept"
)

// InviteEvent is an audit row for the invite lifecycle. The token is only
// ever stored as a fingerprint.
type InviteEvent struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Kind             InviteEventKind `gorm:"type:varchar(16);not null;index" json:"kind"`
	TokenFingerprint string          `gorm:"type:varchar(64);index" json:"token_fingerprint,omitempty"`
	Email            string          `gorm:"type:varchar(320)" json:"email,omitempty"`
	Role             Role            `gorm:"type:varchar(32)" json:"role,omitempty"`
	Reason           string          `gorm:"type:varchar(64)" json:"reason,omitempty"`
	ActorID          string          `gorm:"type:varchar(128)" json:"actor_id,omitempty"`
	Count            int             `gorm:"not null;default:0" json:"count,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (InviteEvent) TableName() string { return "invite_events" }
