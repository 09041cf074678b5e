package controllers

import (
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/middleware"
	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/api/validators"
	"github.com/angelmondragon/buttery-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

// DevLogin mints a token for any netid. Only mounted outside production.
func DevLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func Logout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.AccessIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Logged out.")
	}
}
