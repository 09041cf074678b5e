package models

import (
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/enums"
)

// Order is a paid checkout. Item and ingredient rows are write-once snapshots.
type Order struct {
	ID              int64       `gorm:"column:id;primaryKey;autoIncrement"`
	NetID           string      `gorm:"column:netid;type:text;not null;index"`
	Email           string      `gorm:"column:email;type:text;not null;default:''"`
	TotalPrice      int64       `gorm:"column:total_price;not null"`
	Specifications  string      `gorm:"column:specifications;type:varchar(40);not null;default:''"`
	Status          string      `gorm:"column:status;type:varchar(32);not null;default:'pending'"`
	Paid            bool        `gorm:"column:paid;not null;default:false"`
	StripeSessionID string      `gorm:"column:stripe_session_id;type:text;not null;uniqueIndex"`
	Timestamp       time.Time   `gorm:"column:timestamp;not null;index"`
	User            *User       `gorm:"foreignKey:NetID;references:NetID"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// IsDone reports whether staff marked the order as handed out.
func (o Order) IsDone() bool {
	return enums.IsDoneStatus(o.Status)
}

// OrderItem snapshots a menu item at purchase time. MenuItemID goes NULL when the item is deleted.
type OrderItem struct {
	ID            int64                 `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       int64                 `gorm:"column:order_id;not null;index"`
	MenuItemID    *int64                `gorm:"column:menu_item_id"`
	MenuItemName  string                `gorm:"column:menu_item_name;type:text;not null"`
	MenuItemPrice int64                 `gorm:"column:menu_item_price;not null"`
	Ingredients   []OrderItemIngredient `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
}

func (OrderItem) TableName() string { return "order_items" }

// OrderItemIngredient snapshots a selected ingredient and the surcharge paid for it.
type OrderItemIngredient struct {
	ID             int64                `gorm:"column:id;primaryKey;autoIncrement"`
	OrderItemID    int64                `gorm:"column:order_item_id;not null;index"`
	IngredientID   *int64               `gorm:"column:ingredient_id"`
	Type           enums.IngredientType `gorm:"column:type;type:text;not null"`
	IngredientName string               `gorm:"column:ingredient_name;type:text;not null"`
	AddPrice       int64                `gorm:"column:add_price;not null;default:0"`
}

func (OrderItemIngredient) TableName() string { return "order_item_ingredients" }
