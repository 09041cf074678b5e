package orders

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists orders and their snapshot rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Order, error)
	ListWindow(ctx context.Context, start, end time.Time, sinceID int64) ([]models.Order, error)
	ListForUser(ctx context.Context, netID string, limit int) ([]models.Order, error)
	ListAll(ctx context.Context, limit int) ([]models.Order, error)
	Update(ctx context.Context, id int64, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds an orders repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create writes the order, then each item, then each item's ingredients.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	db := r.db.WithContext(ctx)
	items := order.Items
	if err := db.Omit("User", "Items").Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		item := &items[i]
		item.OrderID = order.ID
		ingredients := item.Ingredients
		if err := db.Omit("Ingredients").Create(item).Error; err != nil {
			return err
		}
		if len(ingredients) == 0 {
			continue
		}
		for j := range ingredients {
			ingredients[j].OrderItemID = item.ID
		}
		if err := db.Create(&ingredients).Error; err != nil {
			return err
		}
		item.Ingredients = ingredients
	}
	order.Items = items
	return nil
}

func (r *repository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_item_ingredients.id ASC")
		})
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.loaded(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindBySession returns nil when no order exists for the checkout session.
func (r *repository) FindBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListWindow returns orders placed in [start, end) with id > sinceID, oldest id first.
func (r *repository) ListWindow(ctx context.Context, start, end time.Time, sinceID int64) ([]models.Order, error) {
	q := r.loaded(ctx).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("id ASC")
	if sinceID > 0 {
		q = q.Where("id > ?", sinceID)
	}
	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListForUser(ctx context.Context, netID string, limit int) ([]models.Order, error) {
	q := r.loaded(ctx).Where("netid = ?", netID).Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListAll(ctx context.Context, limit int) ([]models.Order, error) {
	q := r.loaded(ctx).Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies column updates and reports whether the order exists.
func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}
