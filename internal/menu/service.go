package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/money"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ChangeNotifier is told about committed menu and stock changes.
type ChangeNotifier interface {
	MenuChanged(ctx context.Context)
	StockChanged(ctx context.Context)
}

// Service serves the customer menu and staff menu management.
type Service interface {
	Menu(ctx context.Context) (*MenuView, error)
	StaffMenu(ctx context.Context) (*StaffMenuView, error)
	AddMenuItem(ctx context.Context, input MenuItemInput) (*MenuItemDTO, error)
	UpdateMenuItem(ctx context.Context, id int64, input MenuItemInput) (*MenuItemDTO, error)
	DeleteMenuItem(ctx context.Context, id int64) error
	AddIngredient(ctx context.Context, name string) (*IngredientDTO, error)
	DeleteIngredient(ctx context.Context, id int64) error
	UpdateStock(ctx context.Context, changes map[int64]bool) (int, error)
}

type service struct {
	repo     Repository
	settings SettingsReader
	tx       txRunner
	notifier ChangeNotifier
}

// ServiceParams wires the menu service. Notifier is optional.
type ServiceParams struct {
	Repo     Repository
	Settings SettingsReader
	Tx       txRunner
	Notifier ChangeNotifier
}

// NewService validates dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "menu repository required")
	}
	if params.Settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settings reader required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		settings: params.Settings,
		tx:       params.Tx,
		notifier: params.Notifier,
	}, nil
}

// Menu hides grill items while the grill is closed.
func (s *service) Menu(ctx context.Context) (*MenuView, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	items, err := s.repo.ListItems(ctx, settings.GrillOpen)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	view := &MenuView{
		ButteryOpen:  settings.ButteryOpen,
		GrillOpen:    settings.GrillOpen,
		Announcement: settings.Announcement,
		Items:        make([]MenuItemDTO, 0, len(items)),
	}
	for _, item := range items {
		view.Items = append(view.Items, toMenuItemDTO(item))
	}
	return view, nil
}

func (s *service) StaffMenu(ctx context.Context) (*StaffMenuView, error) {
	items, err := s.repo.ListItems(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list menu items")
	}
	ingredients, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ingredients")
	}
	view := &StaffMenuView{
		Items:       make([]MenuItemDTO, 0, len(items)),
		Ingredients: make([]IngredientDTO, 0, len(ingredients)),
	}
	for _, item := range items {
		view.Items = append(view.Items, toMenuItemDTO(item))
	}
	for _, ing := range ingredients {
		view.Ingredients = append(view.Ingredients, toIngredientDTO(ing))
	}
	return view, nil
}

type normalizedItem struct {
	name  string
	price int64
	links []models.MenuItemIngredient
}

func (s *service) normalize(ctx context.Context, input MenuItemInput) (*normalizedItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Menu item name is required.")
	}
	price, err := money.ParseDollars(input.Price)
	if err != nil || price <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Valid price is required.")
	}
	if len(input.Required) == 0 && len(input.Choice) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "At least one ingredient is required from Required or Choice.")
	}

	seen := map[int64]struct{}{}
	claim := func(id int64) error {
		if _, dup := seen[id]; dup {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "Ingredient %d is duplicated in your selection.", id)
		}
		seen[id] = struct{}{}
		return nil
	}

	links := make([]models.MenuItemIngredient, 0, len(input.Required)+len(input.Choice)+len(input.Optional))
	for _, id := range input.Required {
		if err := claim(id); err != nil {
			return nil, err
		}
		links = append(links, models.MenuItemIngredient{IngredientID: id, Type: enums.IngredientTypeRequired})
	}
	priced := []struct {
		typ    enums.IngredientType
		prices map[int64]string
	}{
		{enums.IngredientTypeChoice, input.Choice},
		{enums.IngredientTypeOptional, input.Optional},
	}
	for _, group := range priced {
		for _, id := range sortedKeys(group.prices) {
			if err := claim(id); err != nil {
				return nil, err
			}
			cents, err := parseSurcharge(group.prices[id])
			if err != nil {
				return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "Invalid price for ingredient %d.", id)
			}
			links = append(links, models.MenuItemIngredient{IngredientID: id, Type: group.typ, AddPrice: cents})
		}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	count, err := s.repo.CountIngredients(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ingredients")
	}
	if count != int64(len(ids)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "One or more selected ingredients do not exist.")
	}
	return &normalizedItem{name: name, price: price, links: links}, nil
}

func parseSurcharge(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	cents, err := money.ParseDollars(raw)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, fmt.Errorf("negative surcharge")
	}
	return cents, nil
}

func (s *service) AddMenuItem(ctx context.Context, input MenuItemInput) (*MenuItemDTO, error) {
	item, err := s.normalize(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, item.name, 0); err != nil {
		return nil, err
	}

	row := models.MenuItem{
		Name:          item.name,
		Price:         item.price,
		Description:   strings.TrimSpace(input.Description),
		RequiresGrill: input.RequiresGrill,
		ObjectKey:     input.ObjectKey,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateItem(ctx, &row); err != nil {
			return err
		}
		return repo.ReplaceLinks(ctx, row.ID, item.links)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create menu item")
	}
	return s.reload(ctx, row.ID)
}

func (s *service) UpdateMenuItem(ctx context.Context, id int64, input MenuItemInput) (*MenuItemDTO, error) {
	if _, err := s.repo.FindItem(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Menu item not found.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	item, err := s.normalize(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, item.name, id); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":           item.name,
		"price":          item.price,
		"description":    strings.TrimSpace(input.Description),
		"requires_grill": input.RequiresGrill,
	}
	if input.ObjectKey != nil {
		updates["object_key"] = *input.ObjectKey
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItem(ctx, id, updates); err != nil {
			return err
		}
		return repo.ReplaceLinks(ctx, id, item.links)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update menu item")
	}
	return s.reload(ctx, id)
}

func (s *service) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.FindItemByName(ctx, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check menu item name")
	case existing.ID != selfID:
		return pkgerrors.New(pkgerrors.CodeConflict, "A menu item with this name already exists.")
	}
	return nil
}

func (s *service) reload(ctx context.Context, id int64) (*MenuItemDTO, error) {
	row, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload menu item")
	}
	s.menuChanged(ctx)
	dto := toMenuItemDTO(*row)
	return &dto, nil
}

// DeleteMenuItem only removes staff-added items; seeded defaults are protected.
func (s *service) DeleteMenuItem(ctx context.Context, id int64) error {
	row, err := s.repo.FindItem(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu item")
	}
	if row == nil || row.IsDefault {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Menu item not found.")
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteItem(ctx, id)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete menu item")
	}
	s.menuChanged(ctx)
	return nil
}

func (s *service) AddIngredient(ctx context.Context, name string) (*IngredientDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Ingredient name is required.")
	}
	_, err := s.repo.FindIngredientByName(ctx, name)
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "An ingredient with this name already exists.")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ingredient name")
	}

	row := models.Ingredient{Name: name, InStock: true}
	if err := s.repo.CreateIngredient(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ingredient")
	}
	dto := toIngredientDTO(row)
	return &dto, nil
}

func (s *service) DeleteIngredient(ctx context.Context, id int64) error {
	row, err := s.repo.FindIngredient(ctx, id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ingredient")
	}
	if row == nil || row.IsDefault {
		return pkgerrors.New(pkgerrors.CodeNotFound, "Ingredient not found or cannot be deleted.")
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteIngredient(ctx, id)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete ingredient")
	}
	s.menuChanged(ctx)
	return nil
}

// UpdateStock applies {ingredient id: in stock} and returns how many ingredients matched.
// Unknown ids are skipped.
func (s *service) UpdateStock(ctx context.Context, changes map[int64]bool) (int, error) {
	if len(changes) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "No changes submitted.")
	}
	updated := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, id := range sortedKeys(changes) {
			found, err := repo.SetStock(ctx, id, changes[id])
			if err != nil {
				return err
			}
			if found {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
	}
	if s.notifier != nil {
		s.notifier.StockChanged(ctx)
	}
	return updated, nil
}

func (s *service) menuChanged(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.MenuChanged(ctx)
	}
}
