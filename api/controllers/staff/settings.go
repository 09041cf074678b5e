package staff

import (
	"context"
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/api/validators"
	"github.com/angelmondragon/buttery-backend/internal/settings"
	"github.com/angelmondragon/buttery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type announcementRequest struct {
	Announcement string `json:"announcement" validate:"max=500"`
}

type settingsResponse struct {
	ButteryOpen  bool   `json:"buttery_open"`
	GrillOpen    bool   `json:"grill_open"`
	Announcement string `json:"announcement"`
}

func toSettingsResponse(row *models.Settings) settingsResponse {
	return settingsResponse{
		ButteryOpen:  row.ButteryOpen,
		GrillOpen:    row.GrillOpen,
		Announcement: row.Announcement,
	}
}

func ToggleGrill(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return toggle(svc, logg, func(ctx context.Context) (*models.Settings, error) {
		return svc.ToggleGrill(ctx)
	})
}

func ToggleButtery(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return toggle(svc, logg, func(ctx context.Context) (*models.Settings, error) {
		return svc.ToggleButtery(ctx)
	})
}

func toggle(svc settings.Service, logg *logger.Logger, flip func(context.Context) (*models.Settings, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		row, err := flip(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSettingsResponse(row))
	}
}

func UpdateAnnouncement(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settings service unavailable"))
			return
		}
		var payload announcementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.SetAnnouncement(r.Context(), payload.Announcement)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSettingsResponse(row))
	}
}
