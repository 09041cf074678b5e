// Package pricing computes effective cart line prices and totals in cents.
package pricing

import (
	"context"
	"fmt"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
)

// LinkKey identifies one menu item ingredient link.
type LinkKey struct {
	MenuItemID   int64
	IngredientID int64
}

// AddPriceMap is the authoritative surcharge per link. Missing keys price at zero.
type AddPriceMap map[LinkKey]int64

// PriceSource loads surcharges for the given menu items.
type PriceSource interface {
	AddPrices(ctx context.Context, menuItemIDs []int64) (AddPriceMap, error)
}

// Apply annotates every cart line with its effective price and returns the cart total.
// Items must have MenuItem and Selections preloaded. Only choice and optional selections are priced.
func Apply(cart *models.Cart, prices AddPriceMap) int64 {
	if cart == nil {
		return 0
	}
	var total int64
	for i := range cart.Items {
		item := &cart.Items[i]
		var price int64
		if item.MenuItem != nil {
			price = item.MenuItem.Price
		}
		for j := range item.Selections {
			sel := &item.Selections[j]
			sel.AddonPrice = 0
			if !sel.Type.Selectable() {
				continue
			}
			sel.AddonPrice = prices[LinkKey{MenuItemID: item.MenuItemID, IngredientID: sel.IngredientID}]
			price += sel.AddonPrice
		}
		item.EffectivePrice = price
		total += price
	}
	return total
}

// Calculator prices carts against the live menu.
type Calculator struct {
	source PriceSource
}

// NewCalculator builds a calculator backed by source.
func NewCalculator(source PriceSource) (*Calculator, error) {
	if source == nil {
		return nil, fmt.Errorf("price source required")
	}
	return &Calculator{source: source}, nil
}

// Total loads the surcharge map for the cart's menu items, annotates the cart and returns its total.
func (c *Calculator) Total(ctx context.Context, cart *models.Cart) (int64, error) {
	if cart == nil || len(cart.Items) == 0 {
		return 0, nil
	}
	prices, err := c.source.AddPrices(ctx, MenuItemIDs(cart))
	if err != nil {
		return 0, fmt.Errorf("load add prices: %w", err)
	}
	return Apply(cart, prices), nil
}

// MenuItemIDs returns the distinct menu item ids referenced by the cart.
func MenuItemIDs(cart *models.Cart) []int64 {
	seen := make(map[int64]struct{}, len(cart.Items))
	ids := make([]int64, 0, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := seen[item.MenuItemID]; ok {
			continue
		}
		seen[item.MenuItemID] = struct{}{}
		ids = append(ids, item.MenuItemID)
	}
	return ids
}
