package cart

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
	stripeclient "github.com/angelmondragon/buttery-backend/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
)

// User-facing messages while a checkout session holds the cart.
const (
	MsgVerifyingCheckout = "We're verifying your checkout status. Please wait a moment."
	MsgPaymentProcessing = "Payment is processing. Please wait a moment."
)

// Lock decisions, also used as metric labels.
const (
	DecisionNoCart       = "no_cart"
	DecisionUnlocked     = "unlocked"
	DecisionLookupFailed = "lookup_failed"
	DecisionPaid         = "paid"
	DecisionReclaimed    = "reclaimed"
	DecisionExpireFailed = "expire_failed"
	DecisionExpired      = "expired"
	DecisionUnrecognized = "unrecognized"
)

// LockGuard decides whether a cart may be edited while it may be bound to a checkout session.
type LockGuard struct {
	repo     Repository
	sessions stripeclient.CheckoutSessions
	now      func() time.Time
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// LockGuardParams wires a LockGuard. Now, Logger and Metrics are optional.
type LockGuardParams struct {
	Repo     Repository
	Sessions stripeclient.CheckoutSessions
	Now      func() time.Time
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
}

// NewLockGuard validates dependencies.
func NewLockGuard(params LockGuardParams) (*LockGuard, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("checkout sessions client required")
	}
	g := &LockGuard{
		repo:     params.Repo,
		sessions: params.Sessions,
		now:      params.Now,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.logg == nil {
		g.logg = logger.Nop()
	}
	return g, nil
}

// Check returns nil when the user's cart may be mutated, releasing an abandoned checkout
// session on the way. Provider failures never change state.
func (g *LockGuard) Check(ctx context.Context, netID string) error {
	decision, err := g.check(ctx, netID)
	g.metrics.IncLockDecision(decision)
	return err
}

func (g *LockGuard) check(ctx context.Context, netID string) (string, error) {
	cart, err := g.repo.FindCart(ctx, netID)
	if err != nil {
		return DecisionLookupFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return DecisionNoCart, nil
	}
	if !cart.Locked() {
		if err := g.repo.Touch(ctx, netID, g.now().UTC()); err != nil {
			return DecisionUnlocked, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		return DecisionUnlocked, nil
	}

	sessionID := cart.SessionID()
	ctx = g.logg.WithField(ctx, "stripe_session_id", sessionID)

	sess, err := g.sessions.Get(ctx, sessionID)
	if err != nil {
		g.logg.Error(ctx, "checkout session lookup failed", err)
		return DecisionLookupFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgVerifyingCheckout)
	}

	switch {
	case sess.Status == stripe.CheckoutSessionStatusComplete &&
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return DecisionPaid, pkgerrors.New(pkgerrors.CodeStateConflict, MsgPaymentProcessing)

	case sess.Status == stripe.CheckoutSessionStatusOpen &&
		(sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid ||
			sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired):
		if _, err := g.sessions.Expire(ctx, sessionID); err != nil {
			g.logg.Error(ctx, "expire abandoned checkout session failed", err)
			return DecisionExpireFailed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgVerifyingCheckout)
		}
		if err := g.repo.ReleaseLock(ctx, netID, g.now().UTC()); err != nil {
			return DecisionReclaimed, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release cart lock")
		}
		g.logg.Info(ctx, "abandoned checkout session expired; cart unlocked")
		return DecisionReclaimed, nil

	case sess.Status == stripe.CheckoutSessionStatusExpired:
		if err := g.repo.ReleaseLock(ctx, netID, g.now().UTC()); err != nil {
			return DecisionExpired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release cart lock")
		}
		return DecisionExpired, nil
	}

	g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
		"session_status": string(sess.Status),
		"payment_status": string(sess.PaymentStatus),
	}), "unrecognized checkout session state; allowing cart edit with lock kept")
	return DecisionUnrecognized, nil
}
