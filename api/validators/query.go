package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

// ParseCursor reads a non-negative id cursor from the query string. Missing means 0.
func ParseCursor(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a non-negative integer").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return cursor, nil
}
