package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/pkg/db/dbtest"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	validator *Validator

	bread, butter, cheese, cheddar, bacon, tomato models.Ingredient
	toast, grilled, soda                          models.MenuItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	dbtest.Settings(t, db, true, true)

	f := &fixture{db: db}
	f.bread = dbtest.Ingredient(t, db, "Bread", true)
	f.butter = dbtest.Ingredient(t, db, "Butter", true)
	f.cheese = dbtest.Ingredient(t, db, "American", true)
	f.cheddar = dbtest.Ingredient(t, db, "Cheddar", true)
	f.bacon = dbtest.Ingredient(t, db, "Bacon", true)
	f.tomato = dbtest.Ingredient(t, db, "Tomato", true)

	f.toast = dbtest.MenuItem(t, db, "Toast", 200, false,
		dbtest.Link{Ingredient: f.bread, Type: enums.IngredientTypeRequired},
		dbtest.Link{Ingredient: f.butter, Type: enums.IngredientTypeRequired},
	)
	f.grilled = dbtest.MenuItem(t, db, "Grilled Cheese", 500, true,
		dbtest.Link{Ingredient: f.bread, Type: enums.IngredientTypeRequired},
		dbtest.Link{Ingredient: f.cheese, Type: enums.IngredientTypeChoice},
		dbtest.Link{Ingredient: f.cheddar, Type: enums.IngredientTypeChoice, AddPrice: 50},
		dbtest.Link{Ingredient: f.bacon, Type: enums.IngredientTypeOptional, AddPrice: 100},
		dbtest.Link{Ingredient: f.tomato, Type: enums.IngredientTypeOptional},
	)
	f.soda = dbtest.MenuItem(t, db, "Soda", 150, false)

	v, err := NewValidator(settings.NewRepository(db), NewRepository(db))
	require.NoError(t, err)
	f.validator = v
	return f
}

func requireRejected(t *testing.T, err error, code pkgerrors.Code, msg string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
	assert.Equal(t, msg, typed.Message())
}

func TestValidateAcceptsWellFormedSelections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.validator.Validate(ctx, Selection{ItemID: f.toast.ID}))
	require.NoError(t, f.validator.Validate(ctx, Selection{
		ItemID:      f.grilled.ID,
		ChoiceIDs:   []int64{f.cheddar.ID},
		OptionalIDs: []int64{f.bacon.ID, f.tomato.ID},
	}))
}

func TestChoiceCardinality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, choice := range []int64{f.cheese.ID, f.cheddar.ID} {
		require.NoError(t, f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID, ChoiceIDs: []int64{choice}}))
	}

	err := f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID})
	requireRejected(t, err, pkgerrors.CodeValidation, MsgChoiceMissing)

	err = f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID, ChoiceIDs: []int64{f.cheese.ID, f.cheddar.ID}})
	requireRejected(t, err, pkgerrors.CodeValidation, MsgChoiceTooMany)

	err = f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID, ChoiceIDs: []int64{f.bacon.ID}})
	requireRejected(t, err, pkgerrors.CodeValidation, MsgInvalidChoice)
}

func TestItemsWithoutChoicesRejectAnyChoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, item := range []models.MenuItem{f.toast, f.soda} {
		for _, choice := range []int64{f.cheese.ID, f.bread.ID, 9999} {
			err := f.validator.Validate(ctx, Selection{ItemID: item.ID, ChoiceIDs: []int64{choice}})
			requireRejected(t, err, pkgerrors.CodeValidation, MsgChoiceNotAllowed)
		}
	}
}

func TestOptionalMustBelongToItem(t *testing.T) {
	f := newFixture(t)
	err := f.validator.Validate(context.Background(), Selection{
		ItemID:      f.grilled.ID,
		ChoiceIDs:   []int64{f.cheese.ID},
		OptionalIDs: []int64{f.butter.ID},
	})
	requireRejected(t, err, pkgerrors.CodeValidation, MsgInvalidOptional)
}

func TestRequiredOutOfStockMakesItemUnorderable(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Ingredient{}).Where("id = ?", f.butter.ID).Update("in_stock", false).Error)

	err := f.validator.Validate(context.Background(), Selection{ItemID: f.toast.ID})
	requireRejected(t, err, pkgerrors.CodeStateConflict, MsgRequiredOutOfStock)

	ok, err := f.validator.Valid(context.Background(), Selection{ItemID: f.toast.ID})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelectedOutOfStock(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Ingredient{}).Where("id = ?", f.bacon.ID).Update("in_stock", false).Error)

	err := f.validator.Validate(context.Background(), Selection{
		ItemID:      f.grilled.ID,
		ChoiceIDs:   []int64{f.cheese.ID},
		OptionalIDs: []int64{f.bacon.ID},
	})
	requireRejected(t, err, pkgerrors.CodeStateConflict, MsgSelectedOutOfStock)
}

func TestGrillGate(t *testing.T) {
	f := newFixture(t)
	dbtest.Settings(t, f.db, true, false)
	ctx := context.Background()

	err := f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID, ChoiceIDs: []int64{f.cheese.ID}})
	requireRejected(t, err, pkgerrors.CodeStateConflict, MsgGrillClosed)

	require.NoError(t, f.db.Model(&models.MenuItem{}).Where("id = ?", f.grilled.ID).Update("requires_grill", false).Error)
	require.NoError(t, f.validator.Validate(ctx, Selection{ItemID: f.grilled.ID, ChoiceIDs: []int64{f.cheese.ID}}))
}

func TestClosedButteryAndMissingItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.validator.Validate(ctx, Selection{ItemID: 424242})
	requireRejected(t, err, pkgerrors.CodeNotFound, MsgItemNotFound)

	dbtest.Settings(t, f.db, false, true)
	err = f.validator.Validate(ctx, Selection{ItemID: f.toast.ID})
	requireRejected(t, err, pkgerrors.CodeStateConflict, MsgButteryClosed)
}

type failingSettings struct{}

func (failingSettings) Get(context.Context) (*models.Settings, error) {
	return nil, errors.New("connection refused")
}

func TestValidSurfacesInfrastructureErrors(t *testing.T) {
	f := newFixture(t)
	v, err := NewValidator(failingSettings{}, NewRepository(f.db))
	require.NoError(t, err)

	ok, err := v.Valid(context.Background(), Selection{ItemID: f.toast.ID})
	assert.False(t, ok)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestParseSelection(t *testing.T) {
	sel, err := ParseSelection(" 7 ", []string{"3", "3"}, []string{"4", "5", "4"})
	require.NoError(t, err)
	assert.Equal(t, Selection{ItemID: 7, ChoiceIDs: []int64{3}, OptionalIDs: []int64{4, 5}}, sel)

	for _, tc := range []struct {
		item      string
		choices   []string
		optionals []string
	}{
		{item: "abc"},
		{item: ""},
		{item: "1", choices: []string{"x"}},
		{item: "1", optionals: []string{"2", ""}},
	} {
		_, err := ParseSelection(tc.item, tc.choices, tc.optionals)
		requireRejected(t, err, pkgerrors.CodeValidation, MsgInvalidFormat)
	}
}

func TestSelectionFromCartItem(t *testing.T) {
	sel := SelectionFromCartItem(models.CartItem{
		MenuItemID: 2,
		Selections: []models.CartItemIngredient{
			{IngredientID: 5, Type: enums.IngredientTypeOptional},
			{IngredientID: 3, Type: enums.IngredientTypeChoice},
		},
	})
	assert.Equal(t, int64(2), sel.ItemID)
	assert.Equal(t, []int64{3}, sel.ChoiceIDs)
	assert.Equal(t, []int64{5}, sel.OptionalIDs)
}
