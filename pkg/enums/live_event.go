package enums

// LiveEventType is the "type" field of messages on the staff live feed.
type LiveEventType string

const (
	LiveEventNewOrder     LiveEventType = "new_order"
	LiveEventOrderUpdated LiveEventType = "order_updated"
	LiveEventStockUpdated LiveEventType = "stock_updated"
	LiveEventSettings     LiveEventType = "settings_updated"
)

func (e LiveEventType) String() string {
	return string(e)
}
