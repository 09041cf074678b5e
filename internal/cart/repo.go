package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists carts, cart lines and their selections.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCart(ctx context.Context, netID string) (*models.Cart, error)
	FindLockedCart(ctx context.Context, netID, sessionID string) (*models.Cart, error)
	EnsureCart(ctx context.Context, netID string, now time.Time) (*models.Cart, error)
	Touch(ctx context.Context, netID string, now time.Time) error
	SetSession(ctx context.Context, netID, sessionID string) error
	ReleaseLock(ctx context.Context, netID string, now time.Time) error
	ClearSession(ctx context.Context, netID string) (bool, error)
	SetSpecifications(ctx context.Context, netID, specs string) error
	AddItem(ctx context.Context, item *models.CartItem) error
	FindItem(ctx context.Context, netID string, itemID int64) (*models.CartItem, error)
	DeleteItems(ctx context.Context, itemIDs []int64) error
	DeleteCart(ctx context.Context, netID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a cart repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) loaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id ASC") }).
		Preload("Items.MenuItem").
		Preload("Items.Selections", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_item_ingredients.ingredient_id ASC")
		}).
		Preload("Items.Selections.Ingredient")
}

// FindCart returns the cart with lines, menu items and selections, or nil when the user has none.
func (r *repository) FindCart(ctx context.Context, netID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.loaded(ctx).Where("netid = ?", netID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLockedCart returns the cart only while it is bound to sessionID.
func (r *repository) FindLockedCart(ctx context.Context, netID, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.loaded(ctx).
		Where("netid = ? AND stripe_session_id = ?", netID, sessionID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) EnsureCart(ctx context.Context, netID string, now time.Time) (*models.Cart, error) {
	cart := models.Cart{NetID: netID, UpdatedAt: now}
	err := r.db.WithContext(ctx).
		Where(models.Cart{NetID: netID}).
		Attrs(models.Cart{UpdatedAt: now}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Touch(ctx context.Context, netID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("netid = ?", netID).
		Update("updated_at", now).Error
}

func (r *repository) SetSession(ctx context.Context, netID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("netid = ?", netID).
		Update("stripe_session_id", sessionID).Error
}

// ReleaseLock clears the session reference and touches updated_at in one write.
func (r *repository) ReleaseLock(ctx context.Context, netID string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("netid = ?", netID).
		Updates(map[string]any{"stripe_session_id": nil, "updated_at": now}).Error
}

// ClearSession drops the session reference without touching updated_at and reports whether a cart matched.
func (r *repository) ClearSession(ctx context.Context, netID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("netid = ?", netID).
		Update("stripe_session_id", nil)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetSpecifications(ctx context.Context, netID, specs string) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("netid = ?", netID).
		Update("specifications", specs).Error
}

func (r *repository) AddItem(ctx context.Context, item *models.CartItem) error {
	db := r.db.WithContext(ctx)
	selections := item.Selections
	if err := db.Omit("MenuItem", "Selections").Create(item).Error; err != nil {
		return err
	}
	if len(selections) == 0 {
		return nil
	}
	for i := range selections {
		selections[i].CartItemID = item.ID
	}
	return db.Omit("Ingredient").Create(&selections).Error
}

func (r *repository) FindItem(ctx context.Context, netID string, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("id = ? AND cart_netid = ?", itemID, netID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DeleteItems(ctx context.Context, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_item_id IN ?", itemIDs).Delete(&models.CartItemIngredient{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", itemIDs).Delete(&models.CartItem{}).Error
}

// DeleteCart removes the cart and everything under it.
func (r *repository) DeleteCart(ctx context.Context, netID string) error {
	db := r.db.WithContext(ctx)
	lines := db.Model(&models.CartItem{}).Select("id").Where("cart_netid = ?", netID)
	if err := db.Where("cart_item_id IN (?)", lines).Delete(&models.CartItemIngredient{}).Error; err != nil {
		return err
	}
	if err := db.Where("cart_netid = ?", netID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("netid = ?", netID).Delete(&models.Cart{}).Error
}
