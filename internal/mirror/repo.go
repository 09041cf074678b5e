package mirror

import (
	"context"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the menu state shown in the sheet banner.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) OutOfStockNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.Ingredient{}).
		Where("in_stock = ?", false).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

// SpecialItemNames lists menu items staff added on top of the default menu.
func (r *Repository) SpecialItemNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("is_default = ?", false).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

func (r *Repository) Announcement(ctx context.Context) (string, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).Where("id = ?", models.SettingsID).Limit(1).Find(&settings).Error
	return settings.Announcement, err
}
