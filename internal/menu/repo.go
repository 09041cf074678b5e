package menu

import (
	"context"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists menu items, their ingredient links and ingredients.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, id int64) (*models.MenuItem, error)
	FindItemByName(ctx context.Context, name string) (*models.MenuItem, error)
	ListItems(ctx context.Context, includeGrill bool) ([]models.MenuItem, error)
	CreateItem(ctx context.Context, item *models.MenuItem) error
	UpdateItem(ctx context.Context, id int64, updates map[string]any) error
	ReplaceLinks(ctx context.Context, itemID int64, links []models.MenuItemIngredient) error
	DeleteItem(ctx context.Context, id int64) error

	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	FindIngredient(ctx context.Context, id int64) (*models.Ingredient, error)
	FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error)
	CountIngredients(ctx context.Context, ids []int64) (int64, error)
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	DeleteIngredient(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, inStock bool) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a menu repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) withLinks(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("menu_item_ingredients.ingredient_id ASC")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *repository) FindItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.withLinks(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByName(ctx context.Context, name string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, includeGrill bool) ([]models.MenuItem, error) {
	q := r.withLinks(ctx).Order("id ASC")
	if !includeGrill {
		q = q.Where("requires_grill = ?", false)
	}
	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Ingredients").Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, id int64, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) ReplaceLinks(ctx context.Context, itemID int64, links []models.MenuItemIngredient) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("menu_item_id = ?", itemID).Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	for i := range links {
		links[i].MenuItemID = itemID
	}
	return db.Omit("Ingredient").Create(&links).Error
}

// DeleteItem removes the item, its links and any cart lines using it. Order snapshots keep
// their copied name and price; only the live reference is cleared.
func (r *repository) DeleteItem(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	cartLines := db.Model(&models.CartItem{}).Select("id").Where("menu_item_id = ?", id)
	if err := db.Where("cart_item_id IN (?)", cartLines).Delete(&models.CartItemIngredient{}).Error; err != nil {
		return err
	}
	if err := db.Where("menu_item_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if err := db.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Update("menu_item_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("menu_item_id = ?", id).Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.MenuItem{}).Error
}

// ListIngredients returns in-stock ingredients first, then by name.
func (r *repository) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var rows []models.Ingredient
	err := r.db.WithContext(ctx).Order("in_stock DESC").Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindIngredient(ctx context.Context, id int64) (*models.Ingredient, error) {
	var row models.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var row models.Ingredient
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) CountIngredients(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

// DeleteIngredient removes the ingredient with its menu and cart links. Order snapshots keep the name.
func (r *repository) DeleteIngredient(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("ingredient_id = ?", id).Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	if err := db.Where("ingredient_id = ?", id).Delete(&models.CartItemIngredient{}).Error; err != nil {
		return err
	}
	if err := db.Model(&models.OrderItemIngredient{}).Where("ingredient_id = ?", id).Update("ingredient_id", nil).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Ingredient{}).Error
}

// SetStock updates one ingredient and reports whether it exists.
func (r *repository) SetStock(ctx context.Context, id int64, inStock bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id = ?", id).Update("in_stock", inStock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
