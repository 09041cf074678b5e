package models

import "github.com/angelmondragon/buttery-backend/pkg/enums"

// MenuItem is an orderable item. Price is in cents.
type MenuItem struct {
	ID            int64                `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string               `gorm:"column:name;type:text;not null;uniqueIndex"`
	Price         int64                `gorm:"column:price;not null"`
	RequiresGrill bool                 `gorm:"column:requires_grill;not null;default:false"`
	Description   string               `gorm:"column:description;type:text;not null;default:''"`
	ObjectKey     *string              `gorm:"column:object_key;type:text"`
	IsDefault     bool                 `gorm:"column:is_default;not null;default:false"`
	Ingredients   []MenuItemIngredient `gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
}

func (MenuItem) TableName() string { return "menu_items" }

// MenuItemIngredient links an ingredient to a menu item with its role and surcharge.
type MenuItemIngredient struct {
	MenuItemID   int64                `gorm:"column:menu_item_id;primaryKey;autoIncrement:false"`
	IngredientID int64                `gorm:"column:ingredient_id;primaryKey;autoIncrement:false"`
	Type         enums.IngredientType `gorm:"column:type;type:text;not null"`
	AddPrice     int64                `gorm:"column:add_price;not null;default:0"`
	Ingredient   *Ingredient          `gorm:"foreignKey:IngredientID"`
}

func (MenuItemIngredient) TableName() string { return "menu_item_ingredients" }
