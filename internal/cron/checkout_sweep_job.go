package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

const defaultSweepBatch = 100

type lockedCartReader interface {
	LockedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
}

type lockChecker interface {
	Check(ctx context.Context, netID string) error
}

type CheckoutSweepJobParams struct {
	Logger     *logger.Logger
	Carts      lockedCartReader
	Guard      lockChecker
	StaleAfter time.Duration
	BatchSize  int
	Now        func() time.Time
}

// checkoutSweepJob runs the cart lock guard over carts whose checkout went quiet, so an
// abandoned payment page does not hold a cart until its owner comes back.
type checkoutSweepJob struct {
	logg       *logger.Logger
	carts      lockedCartReader
	guard      lockChecker
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func NewCheckoutSweepJob(params CheckoutSweepJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Carts == nil:
		return nil, fmt.Errorf("locked cart reader required")
	case params.Guard == nil:
		return nil, fmt.Errorf("cart lock guard required")
	case params.StaleAfter <= 0:
		return nil, fmt.Errorf("stale threshold must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &checkoutSweepJob{
		logg:       params.Logger,
		carts:      params.Carts,
		guard:      params.Guard,
		staleAfter: params.StaleAfter,
		batch:      batch,
		now:        now,
	}, nil
}

func (j *checkoutSweepJob) Name() string { return "checkout-sweep" }

func (j *checkoutSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.staleAfter)
	netIDs, err := j.carts.LockedBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale checkout locks: %w", err)
	}

	var errs error
	held := 0
	for _, netID := range netIDs {
		err := j.guard.Check(ctx, netID)
		if err == nil {
			continue
		}
		// A paid session is waiting on its webhook; leave it for reconciliation.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			held++
			continue
		}
		errs = multierr.Append(errs, fmt.Errorf("check %s: %w", netID, err))
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"stale_carts": len(netIDs),
		"held":        held,
		"failed":      len(multierr.Errors(errs)),
	}), "cron.checkout_sweep")
	return errs
}
