package cron

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
)

// CartLocks reads carts that have sat behind a checkout session.
type CartLocks struct {
	db *gorm.DB
}

func NewCartLocks(db *gorm.DB) *CartLocks {
	return &CartLocks{db: db}
}

// LockedBefore returns the netids of locked carts last touched before cutoff, oldest first.
func (r *CartLocks) LockedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var netIDs []string
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("stripe_session_id IS NOT NULL AND stripe_session_id <> ''").
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("netid", &netIDs).Error
	return netIDs, err
}
