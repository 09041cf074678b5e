package menu

import (
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/money"
)

// MenuView is the customer menu plus the service status it was filtered with.
type MenuView struct {
	ButteryOpen  bool          `json:"buttery_open"`
	GrillOpen    bool          `json:"grill_open"`
	Announcement string        `json:"announcement"`
	Items        []MenuItemDTO `json:"items"`
}

// StaffMenuView lists every item and ingredient for menu management.
type StaffMenuView struct {
	Items       []MenuItemDTO   `json:"items"`
	Ingredients []IngredientDTO `json:"ingredients"`
}

// MenuItemDTO is a menu item with its links grouped by type.
type MenuItemDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         int64           `json:"price"`
	PriceDisplay  string          `json:"price_display"`
	Description   string          `json:"description"`
	RequiresGrill bool            `json:"requires_grill"`
	ObjectKey     *string         `json:"object_key,omitempty"`
	IsDefault     bool            `json:"is_default"`
	Required      []IngredientDTO `json:"required"`
	Choice        []IngredientDTO `json:"choice"`
	Optional      []IngredientDTO `json:"optional"`
}

// IngredientDTO is an ingredient, optionally as linked to a menu item.
type IngredientDTO struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	InStock         bool   `json:"in_stock"`
	IsDefault       bool   `json:"is_default"`
	AddPrice        int64  `json:"add_price,omitempty"`
	AddPriceDisplay string `json:"add_price_display,omitempty"`
}

// MenuItemInput is a staff add or update request. Prices are dollar strings.
type MenuItemInput struct {
	Name          string
	Price         string
	Description   string
	RequiresGrill bool
	ObjectKey     *string
	Required      []int64
	Choice        map[int64]string
	Optional      map[int64]string
}

func toMenuItemDTO(item models.MenuItem) MenuItemDTO {
	dto := MenuItemDTO{
		ID:            item.ID,
		Name:          item.Name,
		Price:         item.Price,
		PriceDisplay:  money.Format(item.Price),
		Description:   item.Description,
		RequiresGrill: item.RequiresGrill,
		ObjectKey:     item.ObjectKey,
		IsDefault:     item.IsDefault,
		Required:      []IngredientDTO{},
		Choice:        []IngredientDTO{},
		Optional:      []IngredientDTO{},
	}
	for _, link := range item.Ingredients {
		ing := IngredientDTO{ID: link.IngredientID}
		if link.Ingredient != nil {
			ing = toIngredientDTO(*link.Ingredient)
		}
		switch link.Type {
		case enums.IngredientTypeRequired:
			dto.Required = append(dto.Required, ing)
		case enums.IngredientTypeChoice:
			ing.AddPrice, ing.AddPriceDisplay = link.AddPrice, surcharge(link.AddPrice)
			dto.Choice = append(dto.Choice, ing)
		case enums.IngredientTypeOptional:
			ing.AddPrice, ing.AddPriceDisplay = link.AddPrice, surcharge(link.AddPrice)
			dto.Optional = append(dto.Optional, ing)
		}
	}
	return dto
}

func toIngredientDTO(ing models.Ingredient) IngredientDTO {
	return IngredientDTO{
		ID:        ing.ID,
		Name:      ing.Name,
		InStock:   ing.InStock,
		IsDefault: ing.IsDefault,
	}
}

func surcharge(cents int64) string {
	if cents == 0 {
		return ""
	}
	return "+" + money.Format(cents)
}
