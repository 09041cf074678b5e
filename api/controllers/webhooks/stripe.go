package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/buttery-backend/api/responses"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
	"github.com/angelmondragon/buttery-backend/pkg/metrics"
)

// Stripe payloads are small; anything larger is not a real delivery.
const maxPayloadBytes = 64 << 10

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

type StripeWebhookParams struct {
	Service StripeWebhookService
	Client  stripeClient
	Guard   stripeWebhookGuard
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
}

// StripeWebhook verifies and applies Stripe checkout events.
func StripeWebhook(params StripeWebhookParams) http.HandlerFunc {
	svc, client, guard, logg := params.Service, params.Client, params.Guard, params.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				params.Metrics.Inc("unverified", metrics.WebhookRejected)
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeTooLarge, err, "Stripe payload exceeds the size limit.").
					WithDetails(map[string]any{"limit_bytes": tooLarge.Limit}))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Unable to read request body."))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			params.Metrics.Inc("unverified", metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Missing Stripe signature."))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, client.SigningSecret())
		if err != nil {
			params.Metrics.Inc("unverified", metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid Stripe signature."))
			return
		}

		if guard != nil {
			duplicate, err := guard.Claim(ctx, event.ID)
			if err != nil {
				// Fall through; the unique session id on orders still rejects a replayed completion.
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"event_id": event.ID, "error": err.Error()}), "stripe.idempotency_unavailable")
				}
			} else if duplicate {
				params.Metrics.Inc(string(event.Type), metrics.WebhookDuplicate)
				responses.WriteMessage(w, "Event already processed.")
				return
			}
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if guard != nil {
				_ = guard.Release(ctx, event.ID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteMessage(w, "Event received.")
	}
}
