package pricing

import (
	"context"

	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns a PriceSource reading menu_item_ingredients.
func NewRepository(db *gorm.DB) PriceSource {
	return &repository{db: db}
}

type linkPriceRow struct {
	MenuItemID   int64
	IngredientID int64
	AddPrice     int64
}

func (r *repository) AddPrices(ctx context.Context, menuItemIDs []int64) (AddPriceMap, error) {
	prices := AddPriceMap{}
	if len(menuItemIDs) == 0 {
		return prices, nil
	}
	var rows []linkPriceRow
	err := r.db.WithContext(ctx).
		Table("menu_item_ingredients").
		Select("menu_item_id, ingredient_id, add_price").
		Where("menu_item_id IN ?", menuItemIDs).
		Where("type IN ?", []enums.IngredientType{enums.IngredientTypeChoice, enums.IngredientTypeOptional}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		prices[LinkKey{MenuItemID: row.MenuItemID, IngredientID: row.IngredientID}] = row.AddPrice
	}
	return prices, nil
}
