package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type itemValidator interface {
	Validate(ctx context.Context, sel menu.Selection) error
}

type pricer interface {
	Total(ctx context.Context, cart *models.Cart) (int64, error)
}

// Service implements the customer cart. Mutations assume the lock guard already ran.
type Service interface {
	View(ctx context.Context, netID string) (*CartView, error)
	AddItem(ctx context.Context, netID string, sel menu.Selection) (*AddResult, error)
	RemoveItem(ctx context.Context, netID string, cartItemID int64) (string, error)
	Clear(ctx context.Context, netID string) (bool, error)
	SetSpecifications(ctx context.Context, netID, specs string) (string, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	validator itemValidator
	pricer    pricer
	now       func() time.Time
}

// ServiceParams wires the cart service. Now defaults to time.Now.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Validator itemValidator
	Pricer    pricer
	Now       func() time.Time
}

// NewService validates dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Validator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "item validator required")
	}
	if params.Pricer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pricer required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		validator: params.Validator,
		pricer:    params.Pricer,
		now:       now,
	}, nil
}

func (s *service) View(ctx context.Context, netID string) (*CartView, error) {
	cart, err := s.repo.FindCart(ctx, netID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return emptyView(netID), nil
	}
	total, err := s.pricer.Total(ctx, cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	return toView(cart, total), nil
}

// AddItem validates the selection and stores it as a new line, creating the cart on first add.
// Only the first choice id is kept; the validator guarantees there is at most one.
func (s *service) AddItem(ctx context.Context, netID string, sel menu.Selection) (*AddResult, error) {
	if err := s.validator.Validate(ctx, sel); err != nil {
		return nil, err
	}

	line := models.CartItem{CartNetID: netID, MenuItemID: sel.ItemID}
	if len(sel.ChoiceIDs) > 0 {
		line.Selections = append(line.Selections, models.CartItemIngredient{
			IngredientID: sel.ChoiceIDs[0],
			Type:         enums.IngredientTypeChoice,
		})
	}
	for _, id := range sel.OptionalIDs {
		line.Selections = append(line.Selections, models.CartItemIngredient{
			IngredientID: id,
			Type:         enums.IngredientTypeOptional,
		})
	}

	result := &AddResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.EnsureCart(ctx, netID, s.now().UTC()); err != nil {
			return err
		}
		if err := repo.AddItem(ctx, &line); err != nil {
			return err
		}
		cart, err := repo.FindCart(ctx, netID)
		if err != nil {
			return err
		}
		result.CartItemID = line.ID
		if cart != nil {
			result.ItemCount = len(cart.Items)
			for _, item := range cart.Items {
				if item.ID == line.ID && item.MenuItem != nil {
					result.Name = item.MenuItem.Name
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return result, nil
}

// RemoveItem deletes one of the user's lines and returns the menu item name it held.
func (s *service) RemoveItem(ctx context.Context, netID string, cartItemID int64) (string, error) {
	item, err := s.repo.FindItem(ctx, netID, cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "Item not found in your cart.")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteItems(ctx, []int64{item.ID})
	}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if item.MenuItem == nil {
		return "", nil
	}
	return item.MenuItem.Name, nil
}

// Clear deletes the cart and reports whether there was one.
func (s *service) Clear(ctx context.Context, netID string) (bool, error) {
	cart, err := s.repo.FindCart(ctx, netID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return false, nil
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteCart(ctx, netID)
	}); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return true, nil
}

// SetSpecifications stores the trimmed kitchen note, cut to MaxSpecificationsLength characters.
func (s *service) SetSpecifications(ctx context.Context, netID, specs string) (string, error) {
	cart, err := s.repo.FindCart(ctx, netID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "Your cart is empty.")
	}
	specs = TruncateSpecifications(specs)
	if err := s.repo.SetSpecifications(ctx, netID, specs); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save specifications")
	}
	return specs, nil
}

// TruncateSpecifications trims and caps a kitchen note.
func TruncateSpecifications(specs string) string {
	runes := []rune(strings.TrimSpace(specs))
	if len(runes) > models.MaxSpecificationsLength {
		runes = runes[:models.MaxSpecificationsLength]
	}
	return string(runes)
}
