package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/internal/pricing"
	"github.com/angelmondragon/buttery-backend/pkg/db"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

// Events that end a checkout attempt without payment; each releases the cart lock.
var failureEvents = map[stripe.EventType]struct{}{
	stripe.EventTypeCheckoutSessionExpired:            {},
	stripe.EventTypeCheckoutSessionAsyncPaymentFailed: {},
	stripe.EventTypePaymentIntentPaymentFailed:        {},
	stripe.EventTypePaymentIntentCanceled:             {},
	stripe.EventTypeChargeFailed:                      {},
}

const (
	sessionUniqueConstraint = "orders_stripe_session_id_key"
	sessionUniqueColumn     = "orders.stripe_session_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	CartRepo          cart.Repository
	OrdersRepo        orders.Repository
	Prices            pricing.PriceSource
	TransactionRunner txRunner
	Notifier          orders.PlacedNotifier
	Now               func() time.Time
	Logger            *logger.Logger
	Metrics           *metrics.WebhookMetrics
}

// Service reconciles Stripe Checkout events with carts and orders.
type Service struct {
	carts    cart.Repository
	orders   orders.Repository
	prices   pricing.PriceSource
	txRunner txRunner
	notifier orders.PlacedNotifier
	now      func() time.Time
	logg     *logger.Logger
	metrics  *metrics.WebhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repo required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Prices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "price source required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	s := &Service{
		carts:    params.CartRepo,
		orders:   params.OrdersRepo,
		prices:   params.Prices,
		txRunner: params.TransactionRunner,
		notifier: params.Notifier,
		now:      params.Now,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	return s, nil
}

// sessionRef holds the identifiers every handled event object may carry.
type sessionRef struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func (r sessionRef) netID() string {
	if id := strings.TrimSpace(r.Metadata["netid"]); id != "" {
		return id
	}
	return strings.TrimSpace(r.ClientReferenceID)
}

// HandleEvent applies a verified event. Returned errors are infrastructure failures worth a Stripe retry.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)
	ctx = s.logg.WithFields(ctx, map[string]any{"event_id": event.ID, "event_type": eventType})

	if _, ok := failureEvents[event.Type]; ok {
		outcome, err := s.releaseLock(ctx, event)
		s.metrics.Inc(eventType, outcome)
		return err
	}
	if event.Type == stripe.EventTypeCheckoutSessionCompleted {
		outcome, err := s.complete(ctx, event)
		s.metrics.Inc(eventType, outcome)
		return err
	}
	s.metrics.Inc(eventType, metrics.WebhookIgnored)
	return nil
}

func (s *Service) releaseLock(ctx context.Context, event *stripe.Event) (string, error) {
	var ref sessionRef
	if err := json.Unmarshal(event.Data.Raw, &ref); err != nil {
		s.logg.Warn(ctx, "stripe.failure_event_undecodable")
		return metrics.WebhookIgnored, nil
	}
	netID := ref.netID()
	if netID == "" {
		return metrics.WebhookIgnored, nil
	}
	ctx = s.logg.WithNetID(ctx, netID)
	found, err := s.carts.ClearSession(ctx, netID)
	if err != nil {
		s.logg.Error(ctx, "stripe.release_lock_failed", err)
		return metrics.WebhookFailed, nil
	}
	if !found {
		return metrics.WebhookIgnored, nil
	}
	s.logg.Info(ctx, "stripe.cart_lock_released")
	return metrics.WebhookProcessed, nil
}

func (s *Service) complete(ctx context.Context, event *stripe.Event) (string, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	netID := sessionRef{ClientReferenceID: sess.ClientReferenceID, Metadata: sess.Metadata}.netID()
	if sess.ID == "" || netID == "" {
		s.logg.Warn(ctx, "stripe.completed_session_missing_ids")
		return metrics.WebhookIgnored, nil
	}
	ctx = s.logg.WithFields(s.logg.WithNetID(ctx, netID), map[string]any{"stripe_session_id": sess.ID})

	existing, err := s.orders.FindBySession(ctx, sess.ID)
	if err != nil {
		return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by session")
	}
	if existing != nil {
		return metrics.WebhookDuplicate, nil
	}

	c, err := s.carts.FindLockedCart(ctx, netID, sess.ID)
	if err != nil {
		return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locked cart")
	}
	if c == nil || len(c.Items) == 0 {
		s.logg.Warn(ctx, "stripe.completed_session_without_cart")
		return metrics.WebhookIgnored, nil
	}

	prices, err := s.prices.AddPrices(ctx, pricing.MenuItemIDs(c))
	if err != nil {
		return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load add prices")
	}
	order := Snapshot(c, prices, sess, s.now().UTC())

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Create(ctx, &order)
	})
	if err != nil {
		if isDuplicateSession(err) {
			return metrics.WebhookDuplicate, nil
		}
		return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	ctx = s.logg.WithField(ctx, "order_id", order.ID)
	s.logg.Info(ctx, "stripe.order_created")

	if s.notifier != nil {
		name := ""
		if sess.CustomerDetails != nil {
			name = sess.CustomerDetails.Name
		}
		s.notifier.OrderPlaced(ctx, orders.Placed{Order: order, CustomerName: name})
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.carts.WithTx(tx).DeleteCart(ctx, netID)
	})
	if err != nil {
		s.logg.Error(ctx, "stripe.cart_cleanup_failed", err)
	}
	return metrics.WebhookProcessed, nil
}

// Snapshot freezes the cart into an unsaved order. Amount and email come from the session.
func Snapshot(c *models.Cart, prices pricing.AddPriceMap, sess stripe.CheckoutSession, now time.Time) models.Order {
	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	order := models.Order{
		NetID:           c.NetID,
		Email:           email,
		TotalPrice:      sess.AmountTotal,
		Specifications:  c.Specifications,
		Status:          enums.OrderStatusPending,
		StripeSessionID: sess.ID,
		Timestamp:       now,
		Items:           make([]models.OrderItem, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		menuItemID := item.MenuItemID
		line := models.OrderItem{MenuItemID: &menuItemID}
		if item.MenuItem != nil {
			line.MenuItemName = item.MenuItem.Name
			line.MenuItemPrice = item.MenuItem.Price
		}
		for _, sel := range item.Selections {
			ingredientID := sel.IngredientID
			snap := models.OrderItemIngredient{
				IngredientID: &ingredientID,
				Type:         sel.Type,
			}
			if sel.Ingredient != nil {
				snap.IngredientName = sel.Ingredient.Name
			}
			if sel.Type.Selectable() {
				// The live link price wins; a selection whose link is gone keeps the price it was shown.
				if price, ok := prices[pricing.LinkKey{MenuItemID: item.MenuItemID, IngredientID: sel.IngredientID}]; ok {
					snap.AddPrice = price
				} else {
					snap.AddPrice = sel.AddonPrice
				}
			}
			line.Ingredients = append(line.Ingredients, snap)
		}
		order.Items = append(order.Items, line)
	}
	return order
}

func isDuplicateSession(err error) bool {
	return db.IsUniqueViolation(err, sessionUniqueConstraint) || db.IsUniqueViolation(err, sessionUniqueColumn)
}
