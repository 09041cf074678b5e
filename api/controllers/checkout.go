package controllers

import (
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/internal/checkout"
	"github.com/angelmondragon/buttery-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
	Reused    bool   `json:"reused"`
}

// StripeCheckout starts (or resumes) the hosted payment page. Browsers get a 303 to it;
// clients asking for JSON get the URL in the body.
func StripeCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		netID, err := NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Start(r.Context(), netID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsJSON(r) {
			responses.WriteSuccess(w, checkoutResponse{URL: result.URL, SessionID: result.SessionID, Reused: result.Reused})
			return
		}
		http.Redirect(w, r, result.URL, http.StatusSeeOther)
	}
}

// PaymentSuccess and PaymentFailure are Stripe's return URLs. Orders are only created by the
// webhook, so both just send the browser home.
func PaymentSuccess(cfg config.CheckoutConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cfg.LandingURL, http.StatusSeeOther)
	}
}

func PaymentFailure(cfg config.CheckoutConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cfg.LandingURL, http.StatusSeeOther)
	}
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json"
}
