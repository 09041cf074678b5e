// Package mirror copies orders and menu state into the staff Google Sheet, one tab per service date.
package mirror

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/buttery-backend/internal/orders"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	"github.com/angelmondragon/buttery-backend/pkg/money"
	"github.com/angelmondragon/buttery-backend/pkg/servicewindow"
	"github.com/angelmondragon/buttery-backend/pkg/sheets"
)

// Sheet layout. Orders start at row 8 with columns A..G = id, name, order, specifications, total, DONE, PAID.
const (
	tabDateLayout    = "1/2/2006"
	cellSpecials     = "B3"
	cellOutOfStock   = "B4"
	cellAnnouncement = "B5"
	orderAnchor      = "A8:G"
	orderIDColumn    = "A8:A"
	firstOrderRow    = 8
	doneColumn       = "F"
	paidColumn       = "G"
	checkboxStartCol = 5
	checkboxEndCol   = 7
)

// Mirror receives every change the sheet reflects.
type Mirror interface {
	OrderPlaced(ctx context.Context, placed orders.Placed) error
	OrderUpdated(ctx context.Context, order models.Order) error
	StockChanged(ctx context.Context) error
	MenuChanged(ctx context.Context) error
	AnnouncementChanged(ctx context.Context, announcement string) error
}

type sheet interface {
	EnsureTab(ctx context.Context, title string) (int64, bool, error)
	AppendRow(ctx context.Context, anchor string, values []any) (int, error)
	SetCheckboxes(ctx context.Context, sheetID int64, row int, startCol, endCol int64) error
	WriteCells(ctx context.Context, cells map[string]any) error
	FindRow(ctx context.Context, rng, want string) (int, error)
}

type catalog interface {
	OutOfStockNames(ctx context.Context) ([]string, error)
	SpecialItemNames(ctx context.Context) ([]string, error)
	Announcement(ctx context.Context) (string, error)
}

type sheetMirror struct {
	sheet   sheet
	catalog catalog
	clock   *servicewindow.Clock
	now     func() time.Time
}

// Params wires the sheet mirror. Now defaults to time.Now.
type Params struct {
	Sheet   sheet
	Catalog catalog
	Clock   *servicewindow.Clock
	Now     func() time.Time
}

func New(params Params) (Mirror, error) {
	if params.Sheet == nil {
		return nil, fmt.Errorf("sheets client required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("mirror catalog required")
	}
	if params.Clock == nil {
		return nil, fmt.Errorf("service clock required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &sheetMirror{sheet: params.Sheet, catalog: params.Catalog, clock: params.Clock, now: now}, nil
}

// TabTitle names the tab for the service ts belongs to, e.g. "10/2/2025".
func TabTitle(clock *servicewindow.Clock, ts time.Time) string {
	return clock.ServiceDate(ts).Format(tabDateLayout)
}

// ensureTab returns the current service tab, filling the banner when the tab is new.
func (m *sheetMirror) ensureTab(ctx context.Context) (string, int64, error) {
	title := TabTitle(m.clock, m.now())
	sheetID, created, err := m.sheet.EnsureTab(ctx, title)
	if err != nil {
		return "", 0, err
	}
	if !created {
		return title, sheetID, nil
	}
	cells := map[string]any{}
	specials, err := m.specialsBanner(ctx)
	if err != nil {
		return "", 0, err
	}
	cells[sheets.Range(title, cellSpecials)] = specials
	stock, err := m.stockBanner(ctx)
	if err != nil {
		return "", 0, err
	}
	cells[sheets.Range(title, cellOutOfStock)] = stock
	announcement, err := m.catalog.Announcement(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("load announcement: %w", err)
	}
	cells[sheets.Range(title, cellAnnouncement)] = announcement
	return title, sheetID, m.sheet.WriteCells(ctx, cells)
}

func (m *sheetMirror) OrderPlaced(ctx context.Context, placed orders.Placed) error {
	tab, sheetID, err := m.ensureTab(ctx)
	if err != nil {
		return err
	}
	order := placed.Order
	row, err := m.sheet.AppendRow(ctx, sheets.Range(tab, orderAnchor), []any{
		order.ID,
		placed.CustomerName,
		OrderText(order),
		order.Specifications,
		money.Format(order.TotalPrice),
		false,
		false,
	})
	if err != nil {
		return err
	}
	return m.sheet.SetCheckboxes(ctx, sheetID, row, checkboxStartCol, checkboxEndCol)
}

// OrderUpdated ticks DONE and PAID on the order's row. Orders missing from the sheet are skipped.
func (m *sheetMirror) OrderUpdated(ctx context.Context, order models.Order) error {
	tab := TabTitle(m.clock, order.Timestamp)
	rel, err := m.sheet.FindRow(ctx, sheets.Range(tab, orderIDColumn), strconv.FormatInt(order.ID, 10))
	if err != nil {
		return err
	}
	if rel == 0 {
		return nil
	}
	row := strconv.Itoa(firstOrderRow + rel - 1)
	return m.sheet.WriteCells(ctx, map[string]any{
		sheets.Range(tab, doneColumn+row): order.IsDone(),
		sheets.Range(tab, paidColumn+row): order.Paid,
	})
}

func (m *sheetMirror) StockChanged(ctx context.Context) error {
	tab, _, err := m.ensureTab(ctx)
	if err != nil {
		return err
	}
	banner, err := m.stockBanner(ctx)
	if err != nil {
		return err
	}
	return m.sheet.WriteCells(ctx, map[string]any{sheets.Range(tab, cellOutOfStock): banner})
}

func (m *sheetMirror) MenuChanged(ctx context.Context) error {
	tab, _, err := m.ensureTab(ctx)
	if err != nil {
		return err
	}
	banner, err := m.specialsBanner(ctx)
	if err != nil {
		return err
	}
	return m.sheet.WriteCells(ctx, map[string]any{sheets.Range(tab, cellSpecials): banner})
}

func (m *sheetMirror) AnnouncementChanged(ctx context.Context, announcement string) error {
	tab, _, err := m.ensureTab(ctx)
	if err != nil {
		return err
	}
	return m.sheet.WriteCells(ctx, map[string]any{sheets.Range(tab, cellAnnouncement): announcement})
}

func (m *sheetMirror) stockBanner(ctx context.Context) (string, error) {
	names, err := m.catalog.OutOfStockNames(ctx)
	if err != nil {
		return "", fmt.Errorf("load out of stock ingredients: %w", err)
	}
	return "OUT OF STOCK: " + strings.Join(names, ", "), nil
}

func (m *sheetMirror) specialsBanner(ctx context.Context) (string, error) {
	names, err := m.catalog.SpecialItemNames(ctx)
	if err != nil {
		return "", fmt.Errorf("load special menu items: %w", err)
	}
	return "Special menu items: " + strings.Join(names, ", "), nil
}

// OrderText renders the order column: one line per item, one indented bullet per ingredient.
func OrderText(order models.Order) string {
	var lines []string
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("- %s - %s", item.MenuItemName, money.Format(item.MenuItemPrice)))
		for _, ing := range item.Ingredients {
			line := "  • " + ing.IngredientName
			if ing.AddPrice > 0 {
				line += " (+" + money.Format(ing.AddPrice) + ")"
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

type nop struct{}

// Nop is used when no spreadsheet is configured.
func Nop() Mirror { return nop{} }

func (nop) OrderPlaced(context.Context, orders.Placed) error { return nil }
func (nop) OrderUpdated(context.Context, models.Order) error { return nil }
func (nop) StockChanged(context.Context) error { return nil }
func (nop) MenuChanged(context.Context) error { return nil }
func (nop) AnnouncementChanged(context.Context, string) error { return nil }
