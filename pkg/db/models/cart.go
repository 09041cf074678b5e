package models

import "time"

// MaxSpecificationsLength caps the free-text kitchen note on a cart.
const MaxSpecificationsLength = 40

// Cart is the per-user basket. A non-nil StripeSessionID marks it locked to a checkout session.
type Cart struct {
	NetID           string     `gorm:"column:netid;primaryKey;type:text"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false"`
	StripeSessionID *string    `gorm:"column:stripe_session_id;type:text"`
	Specifications  string     `gorm:"column:specifications;type:varchar(40);not null;default:''"`
	User            *User      `gorm:"foreignKey:NetID;references:NetID"`
	Items           []CartItem `gorm:"foreignKey:CartNetID;references:NetID;constraint:OnDelete:CASCADE"`
}

func (Cart) TableName() string { return "carts" }

// Locked reports whether the cart is bound to a checkout session.
func (c *Cart) Locked() bool {
	return c != nil && c.StripeSessionID != nil && *c.StripeSessionID != ""
}

// SessionID returns the bound checkout session id or "".
func (c *Cart) SessionID() string {
	if !c.Locked() {
		return ""
	}
	return *c.StripeSessionID
}
