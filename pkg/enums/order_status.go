package enums

import "strings"

// Order status is free text set by staff. These are the values the system itself writes or reacts to.
const (
	OrderStatusPending = "pending"
	OrderStatusDone    = "done"

	MaxOrderStatusLength = 32
)

// IsDoneStatus reports whether a staff status marks the order as handed out.
func IsDoneStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), OrderStatusDone)
}
