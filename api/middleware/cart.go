package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/responses"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type cartLockChecker interface {
	Check(ctx context.Context, netID string) error
}

// CartUnlocked runs the cart lock guard before a cart mutation. A cart bound to a live
// checkout is never edited; an abandoned one is released first.
func CartUnlocked(guard cartLockChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			netID := NetIDFromContext(ctx)
			if netID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if err := guard.Check(ctx, netID); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
