package controllers

import (
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
)

// NetIDFromRequest returns the authenticated caller's netid.
func NetIDFromRequest(r *http.Request) (string, error) {
	netID := middleware.NetIDFromContext(r.Context())
	if netID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return netID, nil
}
