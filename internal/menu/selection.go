package menu

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

// Selection is a customer's configuration of one menu item.
type Selection struct {
	ItemID      int64
	ChoiceIDs   []int64
	OptionalIDs []int64
}

// ParseSelection coerces raw form values into a Selection, dropping duplicate ids.
func ParseSelection(itemID string, choiceIDs, optionalIDs []string) (Selection, error) {
	invalid := pkgerrors.New(pkgerrors.CodeValidation, MsgInvalidFormat)

	id, err := parseID(itemID)
	if err != nil {
		return Selection{}, invalid
	}
	choices, err := parseIDs(choiceIDs)
	if err != nil {
		return Selection{}, invalid
	}
	optionals, err := parseIDs(optionalIDs)
	if err != nil {
		return Selection{}, invalid
	}
	return Selection{ItemID: id, ChoiceIDs: choices, OptionalIDs: optionals}, nil
}

// SelectionFromCartItem rebuilds the selection stored on a cart line.
func SelectionFromCartItem(item models.CartItem) Selection {
	choices, optionals := item.SelectionIDs()
	return Selection{
		ItemID:      item.MenuItemID,
		ChoiceIDs:   dedupe(choices),
		OptionalIDs: dedupe(optionals),
	}
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return dedupe(ids), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
