package settings

import (
	"context"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads and writes the singleton settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.Settings, error)
	Toggle(ctx context.Context, column string) (*models.Settings, error)
	SetAnnouncement(ctx context.Context, text string) (*models.Settings, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a settings repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Get returns the settings row, creating it closed when missing.
func (r *repository) Get(ctx context.Context) (*models.Settings, error) {
	var row models.Settings
	err := r.db.WithContext(ctx).
		Where(models.Settings{ID: models.SettingsID}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Toggle flips a boolean column in place so concurrent toggles never lose an update.
func (r *repository) Toggle(ctx context.Context, column string) (*models.Settings, error) {
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ?", models.SettingsID).
		Update(column, gorm.Expr("NOT "+column)).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}

func (r *repository) SetAnnouncement(ctx context.Context, text string) (*models.Settings, error) {
	if _, err := r.Get(ctx); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Settings{}).
		Where("id = ?", models.SettingsID).
		Update("announcement", text).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx)
}
