package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"gorm.io/gorm"
)

// Customer-facing rejection messages.
const (
	MsgInvalidFormat      = "Invalid ingredient or item ID format."
	MsgButteryClosed      = "The buttery is currently closed. You cannot add items to the cart."
	MsgItemNotFound       = "Item not found."
	MsgInvalidOptional    = "Invalid optional ingredient selected."
	MsgChoiceMissing      = "Please select at least one choice ingredient."
	MsgChoiceTooMany      = "Only one choice ingredient can be selected."
	MsgInvalidChoice      = "Invalid choice ingredient selected."
	MsgChoiceNotAllowed   = "Choice ingredients are not allowed for this item."
	MsgRequiredOutOfStock = "One or more required ingredients are out of stock."
	MsgSelectedOutOfStock = "One or more selected ingredients are out of stock."
	MsgGrillClosed        = "The grill is currently closed. You cannot add this item to the cart."
)

// SettingsReader supplies the service status gates.
type SettingsReader interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// ItemReader loads a menu item with its ingredient links and ingredients.
type ItemReader interface {
	FindItem(ctx context.Context, id int64) (*models.MenuItem, error)
}

// Validator decides whether a selection may enter a cart or be purchased.
type Validator struct {
	settings SettingsReader
	items    ItemReader
}

// NewValidator wires a validator.
func NewValidator(settings SettingsReader, items ItemReader) (*Validator, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if items == nil {
		return nil, fmt.Errorf("item reader required")
	}
	return &Validator{settings: settings, items: items}, nil
}

// Validate runs every rule in order and returns the first rejection as a coded error.
func (v *Validator) Validate(ctx context.Context, sel Selection) error {
	settings, err := v.settings.Get(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	if !settings.ButteryOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, MsgButteryClosed)
	}

	item, err := v.items.FindItem(ctx, sel.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, MsgItemNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}

	links := partition(item.Ingredients)

	for _, id := range sel.OptionalIDs {
		if _, ok := links.optional[id]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, MsgInvalidOptional)
		}
	}

	if len(links.choice) > 0 {
		switch {
		case len(sel.ChoiceIDs) == 0:
			return pkgerrors.New(pkgerrors.CodeValidation, MsgChoiceMissing)
		case len(sel.ChoiceIDs) > 1:
			return pkgerrors.New(pkgerrors.CodeValidation, MsgChoiceTooMany)
		}
		if _, ok := links.choice[sel.ChoiceIDs[0]]; !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, MsgInvalidChoice)
		}
	} else if len(sel.ChoiceIDs) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgChoiceNotAllowed)
	}

	for _, ing := range links.required {
		if ing == nil || !ing.InStock {
			return pkgerrors.New(pkgerrors.CodeStateConflict, MsgRequiredOutOfStock)
		}
	}

	for _, id := range append(append([]int64{}, sel.ChoiceIDs...), sel.OptionalIDs...) {
		ing := links.choice[id]
		if ing == nil {
			ing = links.optional[id]
		}
		if ing == nil || !ing.InStock {
			return pkgerrors.New(pkgerrors.CodeStateConflict, MsgSelectedOutOfStock)
		}
	}

	if item.RequiresGrill && !settings.GrillOpen {
		return pkgerrors.New(pkgerrors.CodeStateConflict, MsgGrillClosed)
	}
	return nil
}

// Valid is the silent form of Validate: rule rejections come back as false with no error.
// Only datastore failures are returned.
func (v *Validator) Valid(ctx context.Context, sel Selection) (bool, error) {
	err := v.Validate(ctx, sel)
	if err == nil {
		return true, nil
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		return false, err
	default:
		return false, nil
	}
}

type linkSets struct {
	required []*models.Ingredient
	choice   map[int64]*models.Ingredient
	optional map[int64]*models.Ingredient
}

func partition(links []models.MenuItemIngredient) linkSets {
	sets := linkSets{
		choice:   map[int64]*models.Ingredient{},
		optional: map[int64]*models.Ingredient{},
	}
	for _, link := range links {
		switch link.Type {
		case enums.IngredientTypeRequired:
			sets.required = append(sets.required, link.Ingredient)
		case enums.IngredientTypeChoice:
			sets.choice[link.IngredientID] = link.Ingredient
		case enums.IngredientTypeOptional:
			sets.optional[link.IngredientID] = link.Ingredient
		}
	}
	return sets
}
