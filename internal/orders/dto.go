package orders

import (
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/money"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
)

// UnknownCustomer is shown when an order's user row is gone.
const UnknownCustomer = "Unknown"

// OrderDTO is the order shape shared by the staff feed and history views.
type OrderDTO struct {
	ID             int64          `json:"id"`
	NetID          string         `json:"netid"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	TotalPrice     int64          `json:"total_price"`
	TotalDisplay   string         `json:"total_display"`
	Status         string         `json:"status"`
	Paid           bool           `json:"paid"`
	Specifications string         `json:"specifications"`
	Timestamp      string         `json:"timestamp"`
	Items          []OrderItemDTO `json:"items"`
}

// OrderItemDTO is a purchased line snapshot.
type OrderItemDTO struct {
	MenuItemName        string               `json:"menu_item_name"`
	MenuItemPrice       int64                `json:"menu_item_price"`
	SelectedIngredients []OrderIngredientDTO `json:"selected_ingredients"`
}

// OrderIngredientDTO is a selected ingredient snapshot.
type OrderIngredientDTO struct {
	IngredientName string `json:"ingredient_name"`
	AddPrice       int64  `json:"add_price"`
}

// FeedResult is the POST form of the staff order feed.
type FeedResult struct {
	Orders []OrderDTO `json:"orders"`
	MaxID  int64      `json:"max_id"`
}

// HistoryGroup holds the orders of one service date.
type HistoryGroup struct {
	ServiceDate string     `json:"service_date"`
	Orders      []OrderDTO `json:"orders"`
}

// ToDTO renders an order with its timestamp in service-local time.
func ToDTO(order models.Order, clock *servicewindow.Clock) OrderDTO {
	name := UnknownCustomer
	if order.User != nil && order.User.Name != "" {
		name = order.User.Name
	}
	dto := OrderDTO{
		ID:             order.ID,
		NetID:          order.NetID,
		Name:           name,
		Email:          order.Email,
		TotalPrice:     order.TotalPrice,
		TotalDisplay:   money.Format(order.TotalPrice),
		Status:         order.Status,
		Paid:           order.Paid,
		Specifications: order.Specifications,
		Timestamp:      clock.FormatTimestamp(order.Timestamp),
		Items:          make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		line := OrderItemDTO{
			MenuItemName:        item.MenuItemName,
			MenuItemPrice:       item.MenuItemPrice,
			SelectedIngredients: make([]OrderIngredientDTO, 0, len(item.Ingredients)),
		}
		for _, ing := range item.Ingredients {
			line.SelectedIngredients = append(line.SelectedIngredients, OrderIngredientDTO{
				IngredientName: ing.IngredientName,
				AddPrice:       ing.AddPrice,
			})
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
