package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"minhacomanda-api/ledger"
	"minhacomanda-api/models"
	"minhacomanda-api/notify"
	"minhacomanda-api/payment"

	"github.com/gin-gonic/gin"
)

type CreateChargeRequest struct {
	QRToken string `json:"qrToken" binding:"required"`
	OrderID uint   `json:"orderId" binding:"required"`
}

// CreateCharge asks the configured payment provider for a Pix charge on an
// order. The order must belong to the table the QR token authorizes — an
// order id alone is not sufficient.
func (h *Handler) CreateCharge(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados da cobrança inválidos", err.Error())
		return
	}

	table, restaurant, err := h.resolveTable(req.QRToken)
	if err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ? AND table_id = ?", req.OrderID, table.ID).First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	if order.PaymentStatus == models.PaymentPaid {
		respondOK(c, http.StatusOK, gin.H{"alreadyPaid": true, "orderId": order.ID})
		return
	}

	provider := payment.FromConfig(h.Cfg, restaurant.PixKey)
	charge, err := provider.CreateCharge(c.Request.Context(), payment.ChargeRequest{
		OrderID:         order.ID,
		AmountCents:     order.TotalCents,
		Description:     fmt.Sprintf("Pedido #%d — Mesa %d — %s", order.ID, table.Number, restaurant.Name),
		CustomerName:    order.CustomerName,
		NotificationURL: h.Cfg.PublicBaseURL + "/api/pix/webhook",
	})
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	if charge.Mode == payment.ModeProvider {
		attached, err := h.Ledger.AttachCharge(order.ID, charge.ChargeID)
		if err != nil {
			respondLedgerError(c, err)
			return
		}
		if !attached {
			// A previous charge already owns this order; keep it as the
			// reconciliation key and surface the stored reference.
			h.DB.First(&order, order.ID)
			charge.ChargeID = order.PixChargeID
		} else {
			order.PaymentStatus = models.PaymentPending
			order.PixChargeID = charge.ChargeID
		}
	}

	respondOK(c, http.StatusOK, gin.H{
		"orderId":       order.ID,
		"totalCents":    order.TotalCents,
		"paymentStatus": order.PaymentStatus,
		"pix":           charge,
	})
}

// PixWebhook reconciles an inbound gateway notification with the order
// ledger. Every outcome acknowledges with 200 except a failed signature
// check, so the gateway neither retries forever nor trusts spoofed requests.
func (h *Handler) PixWebhook(c *gin.Context) {
	if !payment.GatewayEnabled(h.Cfg) {
		respondOK(c, http.StatusOK, gin.H{"ignored": true, "reason": "no payment gateway configured"})
		return
	}

	rawBody, err := c.GetRawData()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Erro interno")
		return
	}

	provider := payment.FromConfig(h.Cfg, "")
	result, err := provider.ResolveWebhook(rawBody, c.Request.Header)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			respondError(c, http.StatusUnauthorized, "Erro interno")
			return
		}
		log.Printf("pix webhook: resolve failed: %v", err)
		respondError(c, http.StatusBadGateway, "Erro interno")
		return
	}
	if result == nil {
		respondOK(c, http.StatusOK, gin.H{"ignored": true, "reason": "no payment in event"})
		return
	}

	if !result.Approved {
		respondOK(c, http.StatusOK, gin.H{"processed": true, "approved": false})
		return
	}

	order, err := h.Ledger.OrderByChargeID(result.ChargeID)
	if err != nil {
		if errors.Is(err, ledger.ErrOrderNotFound) {
			log.Printf("pix webhook: no order for charge %s", result.ChargeID)
			respondOK(c, http.StatusOK, gin.H{"processed": true, "orderFound": false})
			return
		}
		respondLedgerError(c, err)
		return
	}

	if order.PaymentStatus == models.PaymentPaid {
		respondOK(c, http.StatusOK, gin.H{"processed": true, "orderId": order.ID, "alreadyPaid": true})
		return
	}

	order, settled, err := h.Ledger.MarkPaid(order.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if settled {
		h.Telegram.SendMessage(notify.Message{
			Text: fmt.Sprintf("💰 Pagamento confirmado — pedido #%d fechado.", order.ID),
		})
	}

	respondOK(c, http.StatusOK, gin.H{"processed": true, "orderId": order.ID, "paymentStatus": order.PaymentStatus})
}
