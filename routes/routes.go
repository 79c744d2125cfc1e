package routes

import (
	"minhacomanda-api/handlers"
	"minhacomanda-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	// ── Public customer routes (qrToken-authorized) ────────────────
	public := r.Group("/api/public")
	{
		public.GET("/menu", h.GetMenu)
		public.POST("/order/create", h.CreateOrder)
		public.GET("/order/get", h.GetOrder)
		public.POST("/waiter/call", h.CallWaiter)
	}

	// ── Payment routes ─────────────────────────────────────────────
	pix := r.Group("/api/pix")
	{
		pix.POST("/create-charge", h.CreateCharge)
		pix.POST("/webhook", h.PixWebhook)
	}

	// ── Telegram bot webhook ───────────────────────────────────────
	r.POST("/api/telegram/webhook", h.TelegramWebhook)

	// ── Lifecycle documentation ────────────────────────────────────
	r.GET("/api/state-machine", h.GetStateMachineInfo)

	// ── Staff routes ───────────────────────────────────────────────
	r.POST("/api/admin/register", h.Register)
	r.POST("/api/admin/login", h.Login)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.GET("/orders", h.ListOrders)
		admin.GET("/orders/:id", h.GetOrderDetail)
		admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
		admin.PUT("/orders/:id/mark-paid", h.MarkOrderPaid)

		admin.GET("/waiter-calls", h.ListWaiterCalls)
		admin.PUT("/waiter-calls/:id/status", h.UpdateWaiterCall)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.POST("/tables", h.CreateTable)
		admin.PUT("/tables/:id", h.UpdateTable)
	}
}
