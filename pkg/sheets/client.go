// Package sheets is a thin Google Sheets v4 client for the staff order spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const valueInputUserEntered = "USER_ENTERED"

var (
	errSpreadsheetRequired  = errors.New("sheets spreadsheet id is required")
	errCredentialsRequired  = errors.New("sheets credentials are required")
	errClientNotInitialized = errors.New("sheets client not initialized")

	updatedRowPattern = regexp.MustCompile(`![A-Z]+(\d+)`)
)

type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	templateTitle string
}

// NewClient builds a Sheets client from service-account credentials.
func NewClient(ctx context.Context, cfg config.SheetsConfig, logg *logger.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errSpreadsheetRequired
	}
	opts := clientOptions(cfg)
	if len(opts) == 0 {
		return nil, errCredentialsRequired
	}
	opts = append(opts, option.WithScopes(gsheets.SpreadsheetsScope))

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "sheets client initialized")
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, templateTitle: cfg.TemplateTitle}, nil
}

func clientOptions(cfg config.SheetsConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// EnsureTab returns the sheet id of the tab titled title, cloning the template tab when it is missing.
// created reports whether a new tab was made.
func (c *Client) EnsureTab(ctx context.Context, title string) (sheetID int64, created bool, err error) {
	if c == nil || c.svc == nil {
		return 0, false, errClientNotInitialized
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("get spreadsheet: %w", err)
	}
	if props := findSheet(meta, title); props != nil {
		return props.SheetId, false, nil
	}
	tpl := findSheet(meta, c.templateTitle)
	if tpl == nil {
		return 0, false, fmt.Errorf("template tab %q not found", c.templateTitle)
	}

	copied, err := c.svc.Spreadsheets.Sheets.CopyTo(c.spreadsheetID, tpl.SheetId, &gsheets.CopySheetToAnotherSpreadsheetRequest{
		DestinationSpreadsheetId: c.spreadsheetID,
	}).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("copy template tab: %w", err)
	}

	rename := &gsheets.BatchUpdateSpreadsheetRequest{Requests: []*gsheets.Request{{
		UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
			Properties: &gsheets.SheetProperties{SheetId: copied.SheetId, Title: title},
			Fields:     "title",
		},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, rename).Context(ctx).Do(); err != nil {
		return 0, false, fmt.Errorf("rename tab %q: %w", title, err)
	}
	return copied.SheetId, true, nil
}

// AppendRow writes values below the table anchored at anchor and returns the 1-based row number written.
func (c *Client) AppendRow(ctx context.Context, anchor string, values []any) (int, error) {
	if c == nil || c.svc == nil {
		return 0, errClientNotInitialized
	}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, anchor, &gsheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption(valueInputUserEntered).
		InsertDataOption("OVERWRITE").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("append row: %w", err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("append row: no update range returned")
	}
	return RowFromRange(resp.Updates.UpdatedRange)
}

// SetCheckboxes turns columns [startCol, endCol) of a 1-based row into checkboxes.
func (c *Client) SetCheckboxes(ctx context.Context, sheetID int64, row int, startCol, endCol int64) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}
	req := &gsheets.BatchUpdateSpreadsheetRequest{Requests: []*gsheets.Request{{
		SetDataValidation: &gsheets.SetDataValidationRequest{
			Range: &gsheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(row - 1),
				EndRowIndex:      int64(row),
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Rule: &gsheets.DataValidationRule{
				Condition:    &gsheets.BooleanCondition{Type: "BOOLEAN"},
				Strict:       true,
				ShowCustomUi: true,
			},
		},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("set checkboxes: %w", err)
	}
	return nil
}

// WriteCells writes single values to A1 ranges in one request.
func (c *Client) WriteCells(ctx context.Context, cells map[string]any) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}
	if len(cells) == 0 {
		return nil
	}
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: valueInputUserEntered}
	for rng, value := range cells {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: rng, Values: [][]any{{value}}})
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write cells: %w", err)
	}
	return nil
}

// FindRow returns the 1-based row in column rng whose value equals want, or 0 when absent.
func (c *Client) FindRow(ctx context.Context, rng, want string) (int, error) {
	if c == nil || c.svc == nil {
		return 0, errClientNotInitialized
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return matchRow(resp.Values, want), nil
}

// Ping checks the spreadsheet is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	return err
}

// RowFromRange extracts the first row number from an A1 range such as "'8/20/2025'!A12:G12".
func RowFromRange(a1 string) (int, error) {
	m := updatedRowPattern.FindStringSubmatch(a1)
	if len(m) != 2 {
		return 0, fmt.Errorf("unexpected range %q", a1)
	}
	return strconv.Atoi(m[1])
}

// Range quotes a tab title for A1 notation.
func Range(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}

func findSheet(meta *gsheets.Spreadsheet, title string) *gsheets.SheetProperties {
	if meta == nil {
		return nil
	}
	for _, s := range meta.Sheets {
		if s != nil && s.Properties != nil && s.Properties.Title == title {
			return s.Properties
		}
	}
	return nil
}

func matchRow(values [][]any, want string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1
		}
	}
	return 0
}
