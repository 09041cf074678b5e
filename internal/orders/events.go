package orders

import (
	"context"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
)

// Placed is a freshly committed order plus the payer's display name reported by Stripe.
type Placed struct {
	Order        models.Order
	CustomerName string
}

// PlacedNotifier is told about orders after their transaction commits.
type PlacedNotifier interface {
	OrderPlaced(ctx context.Context, placed Placed)
}
