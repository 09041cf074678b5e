package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type fakeGuard struct {
	checked []string
	errs    map[string]error
}

func (g *fakeGuard) Check(_ context.Context, netID string) error {
	g.checked = append(g.checked, netID)
	return g.errs[netID]
}

func seedCart(t *testing.T, conn *gorm.DB, netID string, updated time.Time, sessionID string) {
	t.Helper()
	cart := models.Cart{NetID: netID, UpdatedAt: updated}
	if sessionID != "" {
		cart.StripeSessionID = &sessionID
	}
	require.NoError(t, conn.Create(&cart).Error)
}

func TestCartLocksLockedBefore(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2025, 10, 3, 3, 0, 0, 0, time.UTC)
	seedCart(t, conn, "stale2", now.Add(-3*time.Hour), "cs_2")
	seedCart(t, conn, "stale1", now.Add(-5*time.Hour), "cs_1")
	seedCart(t, conn, "fresh", now.Add(-10*time.Minute), "cs_3")
	seedCart(t, conn, "open", now.Add(-6*time.Hour), "")

	netIDs, err := NewCartLocks(conn).LockedBefore(context.Background(), now.Add(-2*time.Hour), 10)
	require.NoError(t, err)
	require.Equal(t, []string{"stale1", "stale2"}, netIDs)

	netIDs, err = NewCartLocks(conn).LockedBefore(context.Background(), now.Add(-2*time.Hour), 1)
	require.NoError(t, err)
	require.Equal(t, []string{"stale1"}, netIDs)
}

func TestCheckoutSweepRunsGuardOverStaleCarts(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2025, 10, 3, 3, 0, 0, 0, time.UTC)
	seedCart(t, conn, "abandoned", now.Add(-3*time.Hour), "cs_1")
	seedCart(t, conn, "paid", now.Add(-4*time.Hour), "cs_2")
	seedCart(t, conn, "fresh", now.Add(-time.Minute), "cs_3")

	guard := &fakeGuard{errs: map[string]error{
		"paid": pkgerrors.New(pkgerrors.CodeStateConflict, "Payment is processing. Please wait a moment."),
	}}
	job, err := NewCheckoutSweepJob(CheckoutSweepJobParams{
		Logger:     logger.Nop(),
		Carts:      NewCartLocks(conn),
		Guard:      guard,
		StaleAfter: 2 * time.Hour,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []string{"paid", "abandoned"}, guard.checked)
}

func TestCheckoutSweepCollectsProviderFailures(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2025, 10, 3, 3, 0, 0, 0, time.UTC)
	seedCart(t, conn, "a", now.Add(-3*time.Hour), "cs_1")
	seedCart(t, conn, "b", now.Add(-4*time.Hour), "cs_2")

	guard := &fakeGuard{errs: map[string]error{
		"a": pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("stripe timeout"), "verify"),
	}}
	job, err := NewCheckoutSweepJob(CheckoutSweepJobParams{
		Logger:     logger.Nop(),
		Carts:      NewCartLocks(conn),
		Guard:      guard,
		StaleAfter: time.Hour,
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "stripe timeout")
	require.ElementsMatch(t, []string{"a", "b"}, guard.checked)
}

func TestNewCheckoutSweepJobValidates(t *testing.T) {
	_, err := NewCheckoutSweepJob(CheckoutSweepJobParams{Logger: logger.Nop(), Carts: NewCartLocks(nil), Guard: &fakeGuard{}})
	require.Error(t, err)
}
