package cart

import (
	"encoding/json"
)

// addItemRequest accepts ids as JSON numbers or numeric strings.
type addItemRequest struct {
	ItemID      json.Number   `json:"item_id" validate:"required"`
	ChoiceIDs   []json.Number `json:"choice_ids"`
	OptionalIDs []json.Number `json:"optional_ids"`
}

func (r addItemRequest) raw() (string, []string, []string) {
	return r.ItemID.String(), numbers(r.ChoiceIDs), numbers(r.OptionalIDs)
}

func numbers(in []json.Number) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.String())
	}
	return out
}

type removeItemRequest struct {
	CartItemID int64 `json:"cart_item_id" validate:"required,gt=0"`
}

type specificationsRequest struct {
	Specifications string `json:"specifications"`
}

type addItemResponse struct {
	Message    string `json:"message"`
	CartItemID int64  `json:"cart_item_id"`
	ItemCount  int    `json:"item_count"`
}

type specificationsResponse struct {
	Message        string `json:"message"`
	Specifications string `json:"specifications"`
}
