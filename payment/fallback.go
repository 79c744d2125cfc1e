package payment

import (
	"context"
	"net/http"
)

// Fallback serves restaurants without a gateway integration: the customer
// pays the restaurant's manual Pix key and staff confirm the payment through
// the admin mark-paid action, never through the webhook pipeline.
type Fallback struct {
	PixKey string
}

func (f *Fallback) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	return &Charge{
		Mode:         ModeFallback,
		Provider:     "manual",
		CopiaECola:   f.PixKey,
		Instructions: "Pague usando a chave Pix acima e avise um atendente para confirmar o pagamento.",
	}, nil
}

// ResolveWebhook always resolves to nothing: the fallback never receives
// webhooks.
func (f *Fallback) ResolveWebhook(rawBody []byte, header http.Header) (*WebhookResult, error) {
	return nil, nil
}
