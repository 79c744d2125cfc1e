package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"minhacomanda-api/models"
	"minhacomanda-api/notify"
	"minhacomanda-api/statemachine"

	"github.com/gin-gonic/gin"
)

// statusLabels for staff-facing Telegram messages
var statusLabels = map[models.OrderStatus]string{
	models.StatusAwaiting:  "Aguardando",
	models.StatusConfirmed: "Confirmado",
	models.StatusPreparing: "Em preparo",
	models.StatusDelivered: "Entregue",
	models.StatusClosed:    "Fechado",
	models.StatusCanceled:  "Cancelado",
}

// statusKeyboard builds the inline keyboard with the advisory next statuses
// for an order. Callback data format: "order:{id}:{status}".
func statusKeyboard(orderID uint, current models.OrderStatus) [][]notify.InlineButton {
	next := statemachine.SuggestedTransitionsFrom(current)
	if len(next) == 0 {
		return nil
	}
	row := make([]notify.InlineButton, 0, len(next))
	for _, s := range next {
		row = append(row, notify.InlineButton{
			Text:         statusLabels[s],
			CallbackData: fmt.Sprintf("order:%d:%s", orderID, s),
		})
	}
	return [][]notify.InlineButton{row}
}

type telegramUpdate struct {
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			MessageID int `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// TelegramWebhook handles staff taps on inline keyboards. Updates we do not
// understand are acknowledged with 200 so Telegram stops redelivering them.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	if h.Cfg.TelegramWebhookSecret != "" &&
		c.GetHeader("x-telegram-bot-api-secret-token") != h.Cfg.TelegramWebhookSecret {
		respondError(c, http.StatusUnauthorized, "Erro interno")
		return
	}

	var update telegramUpdate
	if err := c.ShouldBindJSON(&update); err != nil || update.CallbackQuery == nil {
		respondOK(c, http.StatusOK, gin.H{"ignored": true})
		return
	}

	cb := update.CallbackQuery
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 || parts[0] != "order" {
		h.Telegram.AnswerCallbackQuery(cb.ID, "Ação desconhecida")
		respondOK(c, http.StatusOK, gin.H{"ignored": true})
		return
	}

	orderID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		h.Telegram.AnswerCallbackQuery(cb.ID, "Pedido inválido")
		respondOK(c, http.StatusOK, gin.H{"ignored": true})
		return
	}

	order, err := h.Ledger.TransitionStatus(uint(orderID), models.OrderStatus(parts[2]), models.SourceTelegram)
	if err != nil {
		h.Telegram.AnswerCallbackQuery(cb.ID, "Não foi possível atualizar o pedido")
		respondOK(c, http.StatusOK, gin.H{"processed": false})
		return
	}

	h.Telegram.AnswerCallbackQuery(cb.ID, "Pedido #"+parts[1]+": "+statusLabels[order.Status])
	if cb.Message != nil {
		h.Telegram.EditMessageText(cb.Message.Chat.ID, cb.Message.MessageID,
			fmt.Sprintf("🧾 Pedido #%d — %s", order.ID, statusLabels[order.Status]))
	}

	respondOK(c, http.StatusOK, gin.H{"processed": true, "orderId": order.ID, "status": order.Status})
}
