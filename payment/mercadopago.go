package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MercadoPago creates Pix charges through the Mercado Pago payments API and
// resolves its webhook notifications.
type MercadoPago struct {
	accessToken   string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func NewMercadoPago(accessToken, webhookSecret, baseURL string) *MercadoPago {
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	return &MercadoPago{
		accessToken:   accessToken,
		webhookSecret: webhookSecret,
		baseURL:       strings.TrimRight(baseURL, "/"),
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

type mpPayment struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

type mpWebhookEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// CreateCharge creates a Pix payment and returns its QR code payload. The
// idempotency key ties retries of the same request together without reusing
// a key across distinct charge attempts for the order.
func (m *MercadoPago) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	payload := map[string]interface{}{
		"transaction_amount": float64(req.AmountCents) / 100,
		"description":        req.Description,
		"payment_method_id":  "pix",
		"notification_url":   req.NotificationURL,
		"payer": map[string]interface{}{
			"email":      fmt.Sprintf("pedido-%d@minhacomanda.app", req.OrderID),
			"first_name": req.CustomerName,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", fmt.Sprintf("order-%d-%d", req.OrderID, time.Now().UnixMilli()))

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: create payment returned %d", ErrUpstream, resp.StatusCode)
	}

	var out mpPayment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	qr := out.PointOfInteraction.TransactionData
	if out.ID.String() == "" || qr.QRCode == "" {
		return nil, fmt.Errorf("%w: resposta sem payload Pix", ErrUpstream)
	}

	return &Charge{
		Mode:         ModeProvider,
		Provider:     "mercadopago",
		ChargeID:     out.ID.String(),
		QRCodeBase64: qr.QRCodeBase64,
		CopiaECola:   qr.QRCode,
		Instructions: "Escaneie o QR code ou use o copia e cola no app do seu banco para pagar.",
	}, nil
}

// ResolveWebhook verifies the notification signature, filters non-payment
// events, and fetches the payment's current status from the gateway.
func (m *MercadoPago) ResolveWebhook(rawBody []byte, header http.Header) (*WebhookResult, error) {
	var event mpWebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, nil
	}
	paymentID := event.Data.ID.String()

	if m.webhookSecret != "" {
		if err := m.verifySignature(paymentID, header); err != nil {
			return nil, err
		}
	}

	if event.Type != "payment" && !strings.HasPrefix(event.Action, "payment.") {
		return nil, nil
	}
	if paymentID == "" {
		return nil, nil
	}

	detail, err := m.fetchPayment(paymentID)
	if err != nil {
		return nil, err
	}
	return &WebhookResult{
		ChargeID: paymentID,
		Approved: detail.Status == "approved",
	}, nil
}

func (m *MercadoPago) fetchPayment(paymentID string) (*mpPayment, error) {
	httpReq, err := http.NewRequest(http.MethodGet, m.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.accessToken)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: get payment returned %d", ErrUpstream, resp.StatusCode)
	}

	var out mpPayment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return &out, nil
}

// verifySignature checks the x-signature header ("ts=...,v1=...") against the
// HMAC-SHA256 of the canonical manifest, in constant time.
func (m *MercadoPago) verifySignature(paymentID string, header http.Header) error {
	sig := header.Get("x-signature")
	if sig == "" {
		return ErrBadSignature
	}

	var ts, v1 string
	for _, part := range strings.Split(sig, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return ErrBadSignature
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;",
		strings.ToLower(paymentID), header.Get("x-request-id"), ts)
	mac := hmac.New(sha256.New, []byte(m.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return ErrBadSignature
	}
	return nil
}
