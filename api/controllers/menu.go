package controllers

import (
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type statusResponse struct {
	ButteryOpen  bool   `json:"buttery_open"`
	GrillOpen    bool   `json:"grill_open"`
	Announcement string `json:"announcement"`
}

// Status is the public open/closed banner.
func Status(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		row, err := svc.Status(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statusResponse{
			ButteryOpen:  row.ButteryOpen,
			GrillOpen:    row.GrillOpen,
			Announcement: row.Announcement,
		})
	}
}

func Menu(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "menu service unavailable"))
			return
		}
		view, err := svc.Menu(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
