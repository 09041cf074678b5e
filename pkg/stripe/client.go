package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/buttery-backend/pkg/config"
	"github.com/angelmondragon/buttery-backend/pkg/logger"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = errors.New(`stripe environment must be "test" or "live"`)
)

// keyModes maps every accepted secret/restricted key prefix to the mode it belongs to.
var keyModes = map[string]string{
	"sk_test_": "test",
	"rk_test_": "test",
	"sk_live_": "live",
	"rk_live_": "live",
}

// Client carries the buttery's Stripe account settings. Calls go through the
// package-level stripe-go resources, so the key is installed once here.
type Client struct {
	environment   string
	signingSecret string
	currency      string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env := cfg.Environment()
	if env != "test" && env != "live" {
		return nil, errInvalidStripeEnv
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if mode := keyMode(apiKey); mode != env {
		return nil, fmt.Errorf("stripe environment %q does not accept a %q key", env, mode)
	}

	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, errSecretRequired
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	stripe.Key = apiKey

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"stripe_env": env,
			"currency":   currency,
		}), "stripe client initialized")
	}
	return &Client{environment: env, signingSecret: secret, currency: currency}, nil
}

// keyMode reports "test" or "live" for a recognised key and "unknown" otherwise.
func keyMode(key string) string {
	for prefix, mode := range keyModes {
		if strings.HasPrefix(key, prefix) {
			return mode
		}
	}
	return "unknown"
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret is the endpoint secret used to verify webhook signatures.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// Currency is the ISO code every checkout is charged in.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return string(stripe.CurrencyUSD)
	}
	return c.currency
}
