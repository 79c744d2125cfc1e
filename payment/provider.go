package payment

import (
	"context"
	"errors"
	"net/http"

	"minhacomanda-api/config"
)

// Charge modes: "provider" charges carry a gateway charge id that webhooks
// reconcile against; "fallback" charges are a manual Pix key confirmed by
// staff out of band.
const (
	ModeProvider = "provider"
	ModeFallback = "fallback"
)

var (
	// ErrUpstream wraps gateway failures (non-2xx or unusable Pix payload)
	ErrUpstream = errors.New("falha no gateway de pagamento")
	// ErrBadSignature means the webhook signature was missing or did not match
	ErrBadSignature = errors.New("assinatura de webhook inválida")
)

type ChargeRequest struct {
	OrderID         uint
	AmountCents     int64
	Description     string
	CustomerName    string
	NotificationURL string
}

type Charge struct {
	Mode         string `json:"mode"`
	Provider     string `json:"provider"`
	ChargeID     string `json:"chargeId,omitempty"`
	QRCodeBase64 string `json:"qrCodeBase64,omitempty"`
	CopiaECola   string `json:"copiaECola"`
	Instructions string `json:"instructions"`
}

// WebhookResult is a resolved payment notification. A nil result (with nil
// error) means "not a payment event, ignore".
type WebhookResult struct {
	ChargeID string
	Approved bool
}

// Provider abstracts the Pix payment capability set.
type Provider interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	ResolveWebhook(rawBody []byte, header http.Header) (*WebhookResult, error)
}

// FromConfig selects the provider for a request: the gateway when one is
// enabled and credentialed, otherwise the manual fallback with the
// restaurant's own Pix key. Pure function of configuration.
func FromConfig(cfg *config.App, pixKey string) Provider {
	if cfg.PixProvider == "mercadopago" && cfg.MPAccessToken != "" {
		return NewMercadoPago(cfg.MPAccessToken, cfg.MPWebhookSecret, cfg.MPBaseURL)
	}
	return &Fallback{PixKey: pixKey}
}

// GatewayEnabled reports whether webhook notifications can be resolved at
// all; the webhook endpoint has no restaurant context, so this is decided
// from global config alone.
func GatewayEnabled(cfg *config.App) bool {
	return cfg.PixProvider == "mercadopago" && cfg.MPAccessToken != ""
}
