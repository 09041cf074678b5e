package cart

import (
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/money"
)

// CartView is a priced cart as shown to its owner.
type CartView struct {
	NetID          string        `json:"netid"`
	Locked         bool          `json:"locked"`
	Specifications string        `json:"specifications"`
	Items          []CartLineDTO `json:"items"`
	ItemCount      int           `json:"item_count"`
	Total          int64         `json:"total_price"`
	TotalDisplay   string        `json:"total_display"`
}

// CartLineDTO is one priced cart line.
type CartLineDTO struct {
	ID             int64          `json:"id"`
	MenuItemID     int64          `json:"menu_item_id"`
	Name           string         `json:"name"`
	BasePrice      int64          `json:"base_price"`
	EffectivePrice int64          `json:"effective_price"`
	PriceDisplay   string         `json:"price_display"`
	Selections     []SelectionDTO `json:"selections"`
}

// SelectionDTO is a chosen ingredient with the surcharge it added.
type SelectionDTO struct {
	IngredientID int64                `json:"ingredient_id"`
	Name         string               `json:"name"`
	Type         enums.IngredientType `json:"type"`
	AddPrice     int64                `json:"add_price"`
}

// AddResult identifies the line created by AddItem.
type AddResult struct {
	CartItemID int64  `json:"cart_item_id"`
	Name       string `json:"name"`
	ItemCount  int    `json:"item_count"`
}

func emptyView(netID string) *CartView {
	return &CartView{NetID: netID, Items: []CartLineDTO{}, TotalDisplay: money.Format(0)}
}

// toView expects the cart to be priced already.
func toView(cart *models.Cart, total int64) *CartView {
	view := emptyView(cart.NetID)
	view.Locked = cart.Locked()
	view.Specifications = cart.Specifications
	view.Total = total
	view.TotalDisplay = money.Format(total)
	view.ItemCount = len(cart.Items)
	for _, item := range cart.Items {
		line := CartLineDTO{
			ID:             item.ID,
			MenuItemID:     item.MenuItemID,
			EffectivePrice: item.EffectivePrice,
			PriceDisplay:   money.Format(item.EffectivePrice),
			Selections:     make([]SelectionDTO, 0, len(item.Selections)),
		}
		if item.MenuItem != nil {
			line.Name = item.MenuItem.Name
			line.BasePrice = item.MenuItem.Price
		}
		for _, sel := range item.Selections {
			dto := SelectionDTO{IngredientID: sel.IngredientID, Type: sel.Type, AddPrice: sel.AddonPrice}
			if sel.Ingredient != nil {
				dto.Name = sel.Ingredient.Name
			}
			line.Selections = append(line.Selections, dto)
		}
		view.Items = append(view.Items, line)
	}
	return view
}
