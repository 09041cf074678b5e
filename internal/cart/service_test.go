package cart

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/internal/pricing"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/pkg/db"
	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, w *world) Service {
	t.Helper()
	validator, err := menu.NewValidator(settings.NewRepository(w.db), menu.NewRepository(w.db))
	require.NoError(t, err)
	calc, err := pricing.NewCalculator(pricing.NewRepository(w.db))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(w.db),
		Tx:        db.FromGorm(w.db),
		Validator: validator,
		Pricer:    calc,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func TestAddItemCreatesCartAndPricesIt(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w)
	ctx := context.Background()

	res, err := svc.AddItem(ctx, w.user.NetID, menu.Selection{
		ItemID:      w.melt.ID,
		ChoiceIDs:   []int64{w.cheese.ID},
		OptionalIDs: []int64{w.bacon.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Patty Melt", res.Name)
	assert.Equal(t, 1, res.ItemCount)

	_, err = svc.AddItem(ctx, w.user.NetID, menu.Selection{ItemID: w.fries.ID})
	require.NoError(t, err)

	view, err := svc.View(ctx, w.user.NetID)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, int64(900), view.Total)
	assert.Equal(t, "$9", view.TotalDisplay)
	assert.Equal(t, int64(600), view.Items[0].EffectivePrice)
	require.Len(t, view.Items[0].Selections, 2)
	assert.True(t, w.reloadCart(t).UpdatedAt.Equal(fixedNow))
}

func TestAddItemRejectsInvalidSelectionWithoutWriting(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w)

	_, err := svc.AddItem(context.Background(), w.user.NetID, menu.Selection{ItemID: w.melt.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Nil(t, w.reloadCart(t))

	dbtest.Settings(t, w.db, true, false)
	_, err = svc.AddItem(context.Background(), w.user.NetID, menu.Selection{ItemID: w.melt.ID, ChoiceIDs: []int64{w.cheese.ID}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestRemoveItemReturnsName(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w)
	ctx := context.Background()

	res, err := svc.AddItem(ctx, w.user.NetID, menu.Selection{ItemID: w.fries.ID})
	require.NoError(t, err)

	name, err := svc.RemoveItem(ctx, "someone-else", res.CartItemID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Empty(t, name)

	name, err = svc.RemoveItem(ctx, w.user.NetID, res.CartItemID)
	require.NoError(t, err)
	assert.Equal(t, "Fries", name)

	view, err := svc.View(ctx, w.user.NetID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestClearCart(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w)
	ctx := context.Background()

	cleared, err := svc.Clear(ctx, w.user.NetID)
	require.NoError(t, err)
	assert.False(t, cleared)

	_, err = svc.AddItem(ctx, w.user.NetID, menu.Selection{ItemID: w.melt.ID, ChoiceIDs: []int64{w.cheese.ID}})
	require.NoError(t, err)

	cleared, err = svc.Clear(ctx, w.user.NetID)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.Nil(t, w.reloadCart(t))

	var orphans int64
	require.NoError(t, w.db.Table("cart_item_ingredients").Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestSetSpecificationsCapsLength(t *testing.T) {
	w := newWorld(t)
	svc := newService(t, w)
	ctx := context.Background()

	_, err := svc.SetSpecifications(ctx, w.user.NetID, "extra crispy")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, w.user.NetID, menu.Selection{ItemID: w.fries.ID})
	require.NoError(t, err)

	stored, err := svc.SetSpecifications(ctx, w.user.NetID, "   "+strings.Repeat("é", 50))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 40), stored)
	assert.Equal(t, stored, w.reloadCart(t).Specifications)
}
