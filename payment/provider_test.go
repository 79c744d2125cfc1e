package payment

import (
	"context"
	"net/http"
	"testing"

	"minhacomanda-api/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig_Selection(t *testing.T) {
	gatewayCfg := &config.App{PixProvider: "mercadopago", MPAccessToken: "tok"}
	_, isMP := FromConfig(gatewayCfg, "chave@pix").(*MercadoPago)
	assert.True(t, isMP)
	assert.True(t, GatewayEnabled(gatewayCfg))

	disabledCfg := &config.App{PixProvider: "disabled"}
	_, isFallback := FromConfig(disabledCfg, "chave@pix").(*Fallback)
	assert.True(t, isFallback)
	assert.False(t, GatewayEnabled(disabledCfg))

	// Gateway selected but no credentials still falls back
	noTokenCfg := &config.App{PixProvider: "mercadopago"}
	_, isFallback = FromConfig(noTokenCfg, "chave@pix").(*Fallback)
	assert.True(t, isFallback)
	assert.False(t, GatewayEnabled(noTokenCfg))
}

func TestFallback_CreateCharge(t *testing.T) {
	f := &Fallback{PixKey: "cantina@banco.com.br"}
	charge, err := f.CreateCharge(context.Background(), ChargeRequest{OrderID: 1, AmountCents: 4980})
	require.NoError(t, err)
	assert.Equal(t, ModeFallback, charge.Mode)
	assert.Equal(t, "manual", charge.Provider)
	assert.Empty(t, charge.ChargeID)
	assert.Equal(t, "cantina@banco.com.br", charge.CopiaECola)
	assert.NotEmpty(t, charge.Instructions)
}

func TestFallback_NeverResolvesWebhooks(t *testing.T) {
	f := &Fallback{PixKey: "cantina@banco.com.br"}
	result, err := f.ResolveWebhook([]byte(`{"type":"payment"}`), http.Header{})
	require.NoError(t, err)
	assert.Nil(t, result)
}
