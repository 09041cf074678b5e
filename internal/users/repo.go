package users

import (
	"context"
	"errors"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user persistence keyed by netid.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByNetID returns nil when no user has the netid.
func (r *Repository) FindByNetID(ctx context.Context, netID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("netid = ?", netID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert inserts the user or refreshes name and email on an existing netid. Role is never overwritten.
func (r *Repository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "netid"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
	}).Create(user).Error
}
