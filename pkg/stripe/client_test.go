package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/buttery-backend/pkg/config"
)

func TestNewClientValidatesEnvironmentAndKeys(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{WebhookSecret: "whsec_x"}, nil)
	require.ErrorIs(t, err, errAPIKeyRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123"}, nil)
	require.ErrorIs(t, err, errSecretRequired)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_live_123", WebhookSecret: "whsec_x", Env: "test"}, nil)
	require.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", WebhookSecret: "whsec_x", Env: "staging"}, nil)
	require.ErrorIs(t, err, errInvalidStripeEnv)

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", WebhookSecret: " whsec_x ", Currency: "USD"}, nil)
	require.NoError(t, err)
	require.Equal(t, "test", client.Environment())
	require.Equal(t, "whsec_x", client.SigningSecret())
	require.Equal(t, "usd", client.Currency())
	require.NotNil(t, NewCheckoutSessions(client))
}

func TestNilClientAccessors(t *testing.T) {
	var client *Client
	require.Empty(t, client.Environment())
	require.Empty(t, client.SigningSecret())
	require.Equal(t, "usd", client.Currency())
	require.Nil(t, NewCheckoutSessions(nil))
}

func TestKeyMode(t *testing.T) {
	require.Equal(t, "test", keyMode("rk_test_abc"))
	require.Equal(t, "live", keyMode("sk_live_abc"))
	require.Equal(t, "unknown", keyMode("pk_test_abc"))

	_, err := NewClient(context.Background(), config.StripeConfig{APIKey: "pk_test_abc", WebhookSecret: "whsec_x"}, nil)
	require.Error(t, err)
}
