// Package checkout turns a priced cart into a hosted Stripe Checkout session and locks the cart to it.
package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
	stripeclient "github.com/angelmondragon/buttery-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

const (
	MsgEmptyCart    = "Your cart is empty."
	MsgItemsRemoved = "The following items were removed due to not being available: %s"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemChecker interface {
	Valid(ctx context.Context, sel menu.Selection) (bool, error)
}

type cartPricer interface {
	Total(ctx context.Context, c *models.Cart) (int64, error)
}

// Result is where the browser should be sent.
type Result struct {
	URL       string
	SessionID string
	Reused    bool
}

// Service executes checkout orchestration.
type Service interface {
	Start(ctx context.Context, netID string) (*Result, error)
}

type service struct {
	repo      cart.Repository
	tx        txRunner
	validator itemChecker
	pricer    cartPricer
	sessions  stripeclient.CheckoutSessions
	cfg       config.CheckoutConfig
	currency  string
	now       func() time.Time
	logg      *logger.Logger
	metrics   *metrics.CheckoutMetrics
}

// ServiceParams wires the checkout service. Now, Logger and Metrics are optional.
type ServiceParams struct {
	Repo      cart.Repository
	Tx        txRunner
	Validator itemChecker
	Pricer    cartPricer
	Sessions  stripeclient.CheckoutSessions
	Config    config.CheckoutConfig
	Currency  string
	Now       func() time.Time
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tx runner required")
	case params.Validator == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "item validator required")
	case params.Pricer == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricing calculator required")
	case params.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout sessions client required")
	}
	s := &service{
		repo:      params.Repo,
		tx:        params.Tx,
		validator: params.Validator,
		pricer:    params.Pricer,
		sessions:  params.Sessions,
		cfg:       params.Config,
		currency:  strings.ToLower(strings.TrimSpace(params.Currency)),
		now:       params.Now,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}
	if s.currency == "" {
		s.currency = string(stripe.CurrencyUSD)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	if strings.TrimSpace(s.cfg.ProductLabel) == "" {
		s.cfg.ProductLabel = "Buttery Order for %s"
	}
	return s, nil
}

func (s *service) Start(ctx context.Context, netID string) (*Result, error) {
	res, outcome, err := s.start(ctx, netID)
	s.metrics.IncSession(outcome)
	return res, err
}

func (s *service) start(ctx context.Context, netID string) (*Result, string, error) {
	ctx = s.logg.WithNetID(ctx, netID)
	c, err := s.repo.FindCart(ctx, netID)
	if err != nil {
		return nil, metrics.CheckoutFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if c == nil || len(c.Items) == 0 {
		return nil, metrics.CheckoutEmpty, pkgerrors.New(pkgerrors.CodeStateConflict, MsgEmptyCart)
	}

	if c.Locked() {
		res, err := s.reuse(ctx, c)
		if err != nil {
			return nil, metrics.CheckoutFailed, err
		}
		if res != nil {
			return res, metrics.CheckoutReused, nil
		}
	}

	removed, err := s.revalidate(ctx, c)
	if err != nil {
		return nil, metrics.CheckoutFailed, err
	}
	if len(removed) > 0 {
		return nil, metrics.CheckoutAborted, pkgerrors.Newf(pkgerrors.CodeStateConflict, MsgItemsRemoved, strings.Join(removed, ", ")).
			WithDetails(map[string]any{"removed_items": removed})
	}

	total, err := s.pricer.Total(ctx, c)
	if err != nil {
		return nil, metrics.CheckoutFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}

	sess, err := s.sessions.Create(ctx, s.sessionParams(c, total))
	if err != nil {
		return nil, metrics.CheckoutFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if err := s.repo.SetSession(ctx, netID, sess.ID); err != nil {
		return nil, metrics.CheckoutFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	s.logg.Info(s.logg.WithField(ctx, "stripe_session_id", sess.ID), "checkout.session_created")
	return &Result{URL: sess.URL, SessionID: sess.ID}, metrics.CheckoutCreated, nil
}

// reuse returns the live session the cart is locked to, or nil when a new one is needed.
// An unreachable session reference is dropped.
func (s *service) reuse(ctx context.Context, c *models.Cart) (*Result, error) {
	sessionID := c.SessionID()
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "stripe_session_id", sessionID), "checkout.stale_session_cleared")
		if _, clearErr := s.repo.ClearSession(ctx, c.NetID); clearErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, clearErr, "clear stale session")
		}
		c.StripeSessionID = nil
		return nil, nil
	}
	switch {
	case sess.Status == stripe.CheckoutSessionStatusOpen && sess.URL != "":
		return &Result{URL: sess.URL, SessionID: sess.ID, Reused: true}, nil
	case sess.Status == stripe.CheckoutSessionStatusComplete && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, cart.MsgPaymentProcessing)
	}
	return nil, nil
}

// revalidate deletes every line that no longer passes the item rules and releases the lock.
// It returns the removed item names.
func (s *service) revalidate(ctx context.Context, c *models.Cart) ([]string, error) {
	var (
		removedIDs []int64
		names      []string
		kept       []models.CartItem
	)
	for _, item := range c.Items {
		ok, err := s.validator.Valid(ctx, menu.SelectionFromCartItem(item))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate cart item")
		}
		if ok {
			kept = append(kept, item)
			continue
		}
		removedIDs = append(removedIDs, item.ID)
		names = append(names, itemName(item))
	}
	if len(removedIDs) == 0 {
		return nil, nil
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, removedIDs); err != nil {
			return err
		}
		return repo.ReleaseLock(ctx, c.NetID, s.now().UTC())
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove unavailable items")
	}
	c.Items = kept
	c.StripeSessionID = nil
	s.logg.Warn(s.logg.WithField(ctx, "removed_items", names), "checkout.items_removed")
	return names, nil
}

func (s *service) sessionParams(c *models.Cart, total int64) *stripe.CheckoutSessionParams {
	name, email := c.NetID, ""
	if c.User != nil {
		if c.User.Name != "" {
			name = c.User.Name
		}
		email = c.User.Email
	}
	totalStr := strconv.FormatInt(total, 10)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf(s.cfg.ProductLabel, name)),
				},
				UnitAmount: stripe.Int64(total),
			},
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(c.NetID),
		SuccessURL:        stripe.String(s.cfg.SuccessURL()),
		CancelURL:         stripe.String(s.cfg.CancelURL()),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"netid": c.NetID},
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("netid", c.NetID)
	params.AddMetadata("total_price", totalStr)
	params.SetIdempotencyKey(IdempotencyKey(c, total))
	return params
}

// IdempotencyKey identifies one cart state; any edit moves updated_at and yields a new key.
func IdempotencyKey(c *models.Cart, total int64) string {
	return fmt.Sprintf("checkout:%s:%s:%d:%d", c.NetID, c.UpdatedAt.UTC().Format(time.RFC3339Nano), total, len(c.Items))
}

func itemName(item models.CartItem) string {
	if item.MenuItem != nil {
		return item.MenuItem.Name
	}
	return fmt.Sprintf("item #%d", item.MenuItemID)
}
