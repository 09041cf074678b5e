package models

import "github.com/angelmondragon/buttery-backend/pkg/enums"

// CartItem is one configured menu item in a cart.
type CartItem struct {
	ID         int64                `gorm:"column:id;primaryKey;autoIncrement"`
	CartNetID  string               `gorm:"column:cart_netid;type:text;not null;index"`
	MenuItemID int64                `gorm:"column:menu_item_id;not null"`
	MenuItem   *MenuItem            `gorm:"foreignKey:MenuItemID"`
	Selections []CartItemIngredient `gorm:"foreignKey:CartItemID;constraint:OnDelete:CASCADE"`

	// EffectivePrice is filled by pricing; never persisted.
	EffectivePrice int64 `gorm:"-"`
}

func (CartItem) TableName() string { return "cart_items" }

// SelectionIDs splits the selected ingredient ids by type.
func (ci CartItem) SelectionIDs() (choices, optionals []int64) {
	for _, sel := range ci.Selections {
		switch sel.Type {
		case enums.IngredientTypeChoice:
			choices = append(choices, sel.IngredientID)
		case enums.IngredientTypeOptional:
			optionals = append(optionals, sel.IngredientID)
		}
	}
	return choices, optionals
}

// CartItemIngredient is a customer-selected choice or optional ingredient.
type CartItemIngredient struct {
	CartItemID   int64                `gorm:"column:cart_item_id;primaryKey;autoIncrement:false"`
	IngredientID int64                `gorm:"column:ingredient_id;primaryKey;autoIncrement:false"`
	Type         enums.IngredientType `gorm:"column:type;type:text;not null"`
	Ingredient   *Ingredient          `gorm:"foreignKey:IngredientID"`

	// AddonPrice is filled by pricing; never persisted.
	AddonPrice int64 `gorm:"-"`
}

func (CartItemIngredient) TableName() string { return "cart_item_ingredients" }
