package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 10, 3, 2, 30, 0, 0, time.UTC)

type fakeSessions struct {
	sessions  map[string]*stripe.CheckoutSession
	getErr    error
	expireErr error
	expired   []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*stripe.CheckoutSession{}}
}

func (f *fakeSessions) put(id string, status stripe.CheckoutSessionStatus, payment stripe.CheckoutSessionPaymentStatus) {
	f.sessions[id] = &stripe.CheckoutSession{ID: id, Status: status, PaymentStatus: payment}
}

func (f *fakeSessions) Create(context.Context, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (f *fakeSessions) Get(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return sess, nil
}

func (f *fakeSessions) Expire(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	if f.expireErr != nil {
		return nil, f.expireErr
	}
	f.expired = append(f.expired, id)
	sess := f.sessions[id]
	sess.Status = stripe.CheckoutSessionStatusExpired
	return sess, nil
}

type world struct {
	db     *gorm.DB
	user   models.User
	bread  models.Ingredient
	cheese models.Ingredient
	bacon  models.Ingredient
	melt   models.MenuItem
	fries  models.MenuItem
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := dbtest.Open(t)
	dbtest.Settings(t, db, true, true)
	w := &world{db: db}
	w.user = dbtest.User(t, db, "abc123", "Alex", enums.UserRoleConsumer)
	w.bread = dbtest.Ingredient(t, db, "Bread", true)
	w.cheese = dbtest.Ingredient(t, db, "Cheddar", true)
	w.bacon = dbtest.Ingredient(t, db, "Bacon", true)
	w.melt = dbtest.MenuItem(t, db, "Patty Melt", 500, true,
		dbtest.Link{Ingredient: w.bread, Type: enums.IngredientTypeRequired},
		dbtest.Link{Ingredient: w.cheese, Type: enums.IngredientTypeChoice},
		dbtest.Link{Ingredient: w.bacon, Type: enums.IngredientTypeOptional, AddPrice: 100},
	)
	w.fries = dbtest.MenuItem(t, db, "Fries", 300, false)
	return w
}

func (w *world) lockedCart(t *testing.T, sessionID string) {
	t.Helper()
	cart := models.Cart{NetID: w.user.NetID, UpdatedAt: fixedNow.Add(-time.Hour)}
	if sessionID != "" {
		cart.StripeSessionID = &sessionID
	}
	if err := w.db.Create(&cart).Error; err != nil {
		t.Fatalf("create cart: %v", err)
	}
}

func (w *world) reloadCart(t *testing.T) *models.Cart {
	t.Helper()
	var cart models.Cart
	err := w.db.Where("netid = ?", w.user.NetID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	return &cart
}
