package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// CheckoutSessions is the subset of the Checkout Sessions API the ordering flow needs.
type CheckoutSessions interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string) (*stripe.CheckoutSession, error)
	Expire(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type checkoutSessions struct{}

// NewCheckoutSessions returns the live Checkout Sessions client. The api key is
// installed globally by NewClient, so a nil client yields nil.
func NewCheckoutSessions(client *Client) CheckoutSessions {
	if client == nil {
		return nil
	}
	return checkoutSessions{}
}

func (checkoutSessions) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

func (checkoutSessions) Get(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return session.Get(id, params)
}

func (checkoutSessions) Expire(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	return session.Expire(id, params)
}
