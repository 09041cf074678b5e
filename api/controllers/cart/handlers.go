package cart

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/buttery-backend/api/controllers"
	"github.com/angelmondragon/buttery-backend/api/responses"
	"github.com/angelmondragon/buttery-backend/api/validators"
	cartsvc "github.com/angelmondragon/buttery-backend/internal/cart"
	"github.com/angelmondragon/buttery-backend/internal/menu"
	pkgerrors "github.com/angelmondragon/buttery-backend/pkg/errors"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

// View returns the caller's priced cart; an absent cart is an empty one.
func View(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		netID, err := controllers.NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.View(r.Context(), netID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddItem validates a configured menu item and appends it to the cart.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		netID, err := controllers.NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, menu.MsgInvalidFormat))
			return
		}
		sel, err := menu.ParseSelection(payload.raw())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddItem(r.Context(), netID, sel)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, addItemResponse{
			Message:    "Item added to cart.",
			CartItemID: result.CartItemID,
			ItemCount:  result.ItemCount,
		})
	}
}

func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		netID, err := controllers.NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload removeItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Item ID is missing or invalid."))
			return
		}

		name, err := svc.RemoveItem(r.Context(), netID, payload.CartItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if name == "" {
			responses.WriteMessage(w, "Removed item from your cart.")
			return
		}
		responses.WriteMessage(w, fmt.Sprintf("Removed %s from your cart.", name))
	}
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		netID, err := controllers.NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cleared, err := svc.Clear(r.Context(), netID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !cleared {
			responses.WriteMessage(w, "Your cart is already empty.")
			return
		}
		responses.WriteMessage(w, "Your cart has been cleared.")
	}
}

// Specifications stores the free-text note printed on the order.
func Specifications(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		netID, err := controllers.NetIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload specificationsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		specs, err := svc.SetSpecifications(r.Context(), netID, payload.Specifications)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, specificationsResponse{Message: "Specifications saved.", Specifications: specs})
	}
}
