package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"minhacomanda-api/ledger"
	"minhacomanda-api/models"
	"minhacomanda-api/notify"

	"github.com/gin-gonic/gin"
)

// resolveTable resolves the opaque QR token to an active table and its
// restaurant. The token is the customer's only credential.
func (h *Handler) resolveTable(qrToken string) (*models.Table, *models.Restaurant, error) {
	if qrToken == "" {
		return nil, nil, errors.New("qrToken ausente")
	}
	var table models.Table
	if err := h.DB.Where("qr_token = ? AND is_active = ?", qrToken, true).First(&table).Error; err != nil {
		return nil, nil, err
	}
	var restaurant models.Restaurant
	if err := h.DB.First(&restaurant, table.RestaurantID).Error; err != nil {
		return nil, nil, err
	}
	return &table, &restaurant, nil
}

// GetMenu returns the restaurant, table, and active catalog for a QR token
func (h *Handler) GetMenu(c *gin.Context) {
	table, restaurant, err := h.resolveTable(c.Query("qrToken"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	var categories []models.Category
	h.DB.Where("restaurant_id = ? AND is_active = ?", restaurant.ID, true).
		Order("position asc").Find(&categories)

	var products []models.Product
	h.DB.Where("restaurant_id = ? AND is_active = ?", restaurant.ID, true).Find(&products)

	respondOK(c, http.StatusOK, gin.H{
		"restaurant": restaurant,
		"table":      table,
		"categories": categories,
		"products":   products,
	})
}

type CreateOrderRequest struct {
	QRToken      string `json:"qrToken" binding:"required"`
	CustomerName string `json:"customerName"`
	Items        []struct {
		ProductID uint   `json:"productId" binding:"required"`
		Qty       int    `json:"qty" binding:"required"`
		Note      string `json:"note"`
	} `json:"items"`
}

// CreateOrder places a new order for the table behind the QR token
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados do pedido inválidos", err.Error())
		return
	}

	table, restaurant, err := h.resolveTable(req.QRToken)
	if err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	items := make([]ledger.NewOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ledger.NewOrderItem{ProductID: it.ProductID, Qty: it.Qty, Note: it.Note})
	}

	order, err := h.Ledger.CreateOrder(restaurant.ID, table.ID, req.CustomerName, items)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	h.notifyOrderCreated(order, table, restaurant)

	respondOK(c, http.StatusCreated, gin.H{
		"orderId":    order.ID,
		"status":     order.Status,
		"totalCents": order.TotalCents,
		"createdAt":  order.CreatedAt,
	})
}

// GetOrder returns an order with its items and audit events, cross-checked
// against the table the QR token authorizes
func (h *Handler) GetOrder(c *gin.Context) {
	table, _, err := h.resolveTable(c.Query("qrToken"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	var order models.Order
	if err := h.DB.Preload("Items.Product").Preload("Events").
		Where("id = ? AND table_id = ?", c.Query("orderId"), table.ID).
		First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"table":  table,
		"order":  order,
		"items":  order.Items,
		"events": order.Events,
	})
}

type WaiterCallRequest struct {
	QRToken string                `json:"qrToken" binding:"required"`
	Type    models.WaiterCallType `json:"type" binding:"required"`
	Message string                `json:"message"`
}

// CallWaiter registers a waiter/bill request for the table
func (h *Handler) CallWaiter(c *gin.Context) {
	var req WaiterCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados da chamada inválidos", err.Error())
		return
	}
	if req.Type != models.CallWaiter && req.Type != models.CallBill && req.Type != models.CallOther {
		respondValidation(c, "Tipo de chamada inválido", gin.H{"field": "type"})
		return
	}

	table, restaurant, err := h.resolveTable(req.QRToken)
	if err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	call := models.WaiterCall{
		RestaurantID: restaurant.ID,
		TableID:      table.ID,
		Type:         req.Type,
		Message:      req.Message,
		Status:       models.CallOpen,
	}
	if err := h.DB.Create(&call).Error; err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Telegram.SendMessage(notify.Message{
		Text: fmt.Sprintf("🔔 Mesa %d: chamada (%s) %s", table.Number, call.Type, call.Message),
	})

	respondOK(c, http.StatusCreated, gin.H{
		"waiterCallId": call.ID,
		"status":       call.Status,
		"createdAt":    call.CreatedAt,
	})
}

// notifyOrderCreated posts the new order to the staff chat with transition
// buttons; best-effort.
func (h *Handler) notifyOrderCreated(order *models.Order, table *models.Table, restaurant *models.Restaurant) {
	text := fmt.Sprintf("🧾 Novo pedido #%d — Mesa %d (%s)\nTotal: R$ %.2f",
		order.ID, table.Number, restaurant.Name, float64(order.TotalCents)/100)
	if order.CustomerName != "" {
		text += "\nCliente: " + order.CustomerName
	}
	h.Telegram.SendMessage(notify.Message{
		Text:           text,
		InlineKeyboard: statusKeyboard(order.ID, order.Status),
	})
}
