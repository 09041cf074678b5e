package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/internal/pricing"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/db"
	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 10, 3, 2, 30, 0, 0, time.UTC)

// fakeStripe honours idempotency keys the way the Stripe API does.
type fakeStripe struct {
	byKey   map[string]*stripe.CheckoutSession
	byID    map[string]*stripe.CheckoutSession
	params  []*stripe.CheckoutSessionParams
	getErr  error
	created int
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{byKey: map[string]*stripe.CheckoutSession{}, byID: map[string]*stripe.CheckoutSession{}}
}

func (f *fakeStripe) Create(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = append(f.params, params)
	key := ""
	if params.IdempotencyKey != nil {
		key = *params.IdempotencyKey
	}
	if sess, ok := f.byKey[key]; ok && key != "" {
		return sess, nil
	}
	f.created++
	id := fmt.Sprintf("cs_test_%d", f.created)
	sess := &stripe.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		Status:        stripe.CheckoutSessionStatusOpen,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
	}
	f.byKey[key] = sess
	f.byID[id] = sess
	return sess, nil
}

func (f *fakeStripe) Get(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sess, ok := f.byID[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return sess, nil
}

func (f *fakeStripe) Expire(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	sess := f.byID[id]
	sess.Status = stripe.CheckoutSessionStatusExpired
	return sess, nil
}

type fixture struct {
	db     *gorm.DB
	stripe *fakeStripe
	svc    Service
	melt   models.MenuItem
	fries  models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	dbtest.Settings(t, conn, true, true)
	dbtest.User(t, conn, "abc123", "Alex", enums.UserRoleConsumer)
	bread := dbtest.Ingredient(t, conn, "Bread", true)
	cheddar := dbtest.Ingredient(t, conn, "Cheddar", true)
	bacon := dbtest.Ingredient(t, conn, "Bacon", true)
	f := &fixture{db: conn, stripe: newFakeStripe()}
	f.melt = dbtest.MenuItem(t, conn, "Patty Melt", 500, true,
		dbtest.Link{Ingredient: bread, Type: enums.IngredientTypeRequired},
		dbtest.Link{Ingredient: cheddar, Type: enums.IngredientTypeChoice},
		dbtest.Link{Ingredient: bacon, Type: enums.IngredientTypeOptional, AddPrice: 100},
	)
	f.fries = dbtest.MenuItem(t, conn, "Fries", 300, false)

	repo := cart.NewRepository(conn)
	ctx := context.Background()
	_, err := repo.EnsureCart(ctx, "abc123", fixedNow.Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, repo.AddItem(ctx, &models.CartItem{
		CartNetID:  "abc123",
		MenuItemID: f.melt.ID,
		Selections: []models.CartItemIngredient{
			{IngredientID: cheddar.ID, Type: enums.IngredientTypeChoice},
			{IngredientID: bacon.ID, Type: enums.IngredientTypeOptional},
		},
	}))
	require.NoError(t, repo.AddItem(ctx, &models.CartItem{CartNetID: "abc123", MenuItemID: f.fries.ID}))

	validator, err := menu.NewValidator(settings.NewRepository(conn), menu.NewRepository(conn))
	require.NoError(t, err)
	calc, err := pricing.NewCalculator(pricing.NewRepository(conn))
	require.NoError(t, err)
	f.svc, err = NewService(ServiceParams{
		Repo:      repo,
		Tx:        db.FromGorm(conn),
		Validator: validator,
		Pricer:    calc,
		Sessions:  f.stripe,
		Config:    config.CheckoutConfig{PublicBaseURL: "https://buttery.test/"},
		Currency:  "usd",
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) cart(t *testing.T) *models.Cart {
	t.Helper()
	c, err := cart.NewRepository(f.db).FindCart(context.Background(), "abc123")
	require.NoError(t, err)
	return c
}

func TestStartCreatesSessionAndLocksCart(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Start(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionID)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", res.URL)
	assert.False(t, res.Reused)

	require.Len(t, f.stripe.params, 1)
	p := f.stripe.params[0]
	assert.Equal(t, "payment", *p.Mode)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "Buttery Order for Alex", *p.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, int64(900), *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *p.LineItems[0].PriceData.Currency)
	assert.Equal(t, int64(1), *p.LineItems[0].Quantity)
	assert.Equal(t, "abc123@example.edu", *p.CustomerEmail)
	assert.Equal(t, "abc123", *p.ClientReferenceID)
	assert.Equal(t, "abc123", p.Metadata["netid"])
	assert.Equal(t, "900", p.Metadata["total_price"])
	assert.Equal(t, "abc123", p.PaymentIntentData.Metadata["netid"])
	assert.Equal(t, "https://buttery.test/payment_success", *p.SuccessURL)
	assert.Equal(t, "https://buttery.test/payment_failure", *p.CancelURL)
	require.NotNil(t, p.IdempotencyKey)
	assert.Regexp(t, `^checkout:abc123:.+:900:2$`, *p.IdempotencyKey)

	assert.Equal(t, "cs_test_1", f.cart(t).SessionID())
}

func TestStartReusesOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "abc123")
	require.NoError(t, err)
	second, err := f.svc.Start(ctx, "abc123")
	require.NoError(t, err)

	assert.True(t, second.Reused)
	assert.Equal(t, first.URL, second.URL)
	assert.Len(t, f.stripe.params, 1)
}

func TestStartUnchangedCartMapsToSameSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "abc123")
	require.NoError(t, err)

	// The session lookup fails, so the stale lock is cleared and a create is retried.
	f.stripe.getErr = errors.New("stripe unavailable")
	second, err := f.svc.Start(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, f.stripe.created)
	require.Len(t, f.stripe.params, 2)
	assert.Equal(t, *f.stripe.params[0].IdempotencyKey, *f.stripe.params[1].IdempotencyKey)
}

func TestStartEmptyCart(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, cart.NewRepository(f.db).DeleteCart(context.Background(), "abc123"))

	_, err := f.svc.Start(context.Background(), "abc123")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, MsgEmptyCart, pkgerrors.As(err).Message())
	assert.Empty(t, f.stripe.params)
}

func TestStartRemovesUnavailableItemsAndAborts(t *testing.T) {
	f := newFixture(t)
	dbtest.Settings(t, f.db, true, false)
	require.NoError(t, cart.NewRepository(f.db).SetSession(context.Background(), "abc123", "cs_gone"))

	_, err := f.svc.Start(context.Background(), "abc123")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Contains(t, pkgerrors.As(err).Message(), "Patty Melt")
	assert.Equal(t, map[string]any{"removed_items": []string{"Patty Melt"}}, pkgerrors.As(err).Details())
	assert.Empty(t, f.stripe.params)

	c := f.cart(t)
	require.Len(t, c.Items, 1)
	assert.Equal(t, f.fries.ID, c.Items[0].MenuItemID)
	assert.False(t, c.Locked())
	assert.True(t, c.UpdatedAt.Equal(fixedNow))
}

func TestStartRefusesWhilePaidSessionSettles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Start(ctx, "abc123")
	require.NoError(t, err)
	f.stripe.byID[first.SessionID].Status = stripe.CheckoutSessionStatusComplete
	f.stripe.byID[first.SessionID].PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid

	_, err = f.svc.Start(ctx, "abc123")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, cart.MsgPaymentProcessing, pkgerrors.As(err).Message())
}
