package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for the audit tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&InviteEvent{}); err != nil {
		return err
	}

	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_invite_events_email_created " +
			"ON invite_events (lower(email), created_at DESC)",
	).Error
}
