package handlers

import (
	"fmt"
	"net/http"

	"minhacomanda-api/middleware"
	"minhacomanda-api/models"
	"minhacomanda-api/notify"
	"minhacomanda-api/statemachine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	RestaurantName string `json:"restaurant_name" binding:"required"`
	Slug           string `json:"slug" binding:"required"`
	PixKey         string `json:"pix_key"`
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
}

// Register creates a restaurant together with its first staff account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados de cadastro inválidos", err.Error())
		return
	}

	var existing models.StaffUser
	if result := h.DB.Where("email = ?", req.Email).First(&existing); result.Error == nil {
		respondError(c, http.StatusConflict, "E-mail já cadastrado")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	restaurant := models.Restaurant{
		Name:   req.RestaurantName,
		Slug:   req.Slug,
		PixKey: req.PixKey,
		IsOpen: true,
	}
	if err := h.DB.Create(&restaurant).Error; err != nil {
		respondError(c, http.StatusConflict, "Slug já em uso")
		return
	}

	user := models.StaffUser{
		RestaurantID: restaurant.ID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		h.DB.Delete(&models.Restaurant{}, restaurant.ID)
		respondLedgerError(c, err)
		return
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"token":      token,
		"restaurant": restaurant,
		"user":       user,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a staff user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados de login inválidos", err.Error())
		return
	}

	var user models.StaffUser
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "E-mail ou senha incorretos")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "E-mail ou senha incorretos")
		return
	}

	token, err := middleware.GenerateToken(&user)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// ListOrders returns the restaurant's orders with a status summary
func (h *Handler) ListOrders(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var orders []models.Order
	query := h.DB.Preload("Items.Product").Preload("Table").
		Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("created_at desc").Find(&orders)

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}

	respondOK(c, http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

// GetOrderDetail returns one order with items and the full audit trail
func (h *Handler) GetOrderDetail(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var order models.Order
	if err := h.DB.Preload("Items.Product").Preload("Events").Preload("Table").
		Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "Pedido não encontrado")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"order": order})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus transitions an order on behalf of staff
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Status inválido", err.Error())
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	prev := order.Status
	updated, err := h.Ledger.TransitionStatus(order.ID, req.Status, models.SourceAdmin)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	h.Telegram.SendMessage(notify.Message{
		Text: fmt.Sprintf("📋 Pedido #%d: %s → %s", updated.ID, statusLabels[prev], statusLabels[updated.Status]),
	})

	respondOK(c, http.StatusOK, gin.H{
		"order_id":        updated.ID,
		"previous_status": prev,
		"current_status":  updated.Status,
	})
}

// MarkOrderPaid confirms payment manually — the fallback-mode path where
// staff verified the Pix transfer out of band. Idempotent.
func (h *Handler) MarkOrderPaid(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var order models.Order
	if err := h.DB.Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&order).Error; err != nil {
		respondError(c, http.StatusNotFound, "Pedido não encontrado")
		return
	}

	updated, settled, err := h.Ledger.MarkPaid(order.ID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	if settled {
		h.Telegram.SendMessage(notify.Message{
			Text: fmt.Sprintf("💰 Pagamento confirmado manualmente — pedido #%d fechado.", updated.ID),
		})
	}

	respondOK(c, http.StatusOK, gin.H{
		"order_id":       updated.ID,
		"status":         updated.Status,
		"payment_status": updated.PaymentStatus,
		"settled_now":    settled,
	})
}

// ListWaiterCalls returns the restaurant's waiter calls, newest first
func (h *Handler) ListWaiterCalls(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var calls []models.WaiterCall
	query := h.DB.Preload("Table").Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	query.Order("created_at desc").Find(&calls)

	respondOK(c, http.StatusOK, gin.H{"count": len(calls), "waiter_calls": calls})
}

type UpdateWaiterCallRequest struct {
	Status models.WaiterCallStatus `json:"status" binding:"required"`
}

// UpdateWaiterCall acknowledges or closes a waiter call
func (h *Handler) UpdateWaiterCall(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var req UpdateWaiterCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Status inválido", err.Error())
		return
	}
	if req.Status != models.CallAcknowledged && req.Status != models.CallClosed {
		respondValidation(c, "Status de chamada inválido", gin.H{"field": "status"})
		return
	}

	var call models.WaiterCall
	if err := h.DB.Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&call).Error; err != nil {
		respondError(c, http.StatusNotFound, "Chamada não encontrada")
		return
	}

	h.DB.Model(&call).Update("status", req.Status)
	respondOK(c, http.StatusOK, gin.H{"waiter_call_id": call.ID, "status": req.Status})
}

type ProductRequest struct {
	CategoryID  uint   `json:"category_id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required,min=0"`
	IsActive    *bool  `json:"is_active"`
}

// CreateProduct adds a product to the restaurant catalog
func (h *Handler) CreateProduct(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados do produto inválidos", err.Error())
		return
	}

	product := models.Product{
		RestaurantID: restaurantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		IsActive:     true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := h.DB.Create(&product).Error; err != nil {
		respondLedgerError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct edits a catalog product. Existing order items keep their
// snapshot price.
func (h *Handler) UpdateProduct(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var product models.Product
	if err := h.DB.Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&product).Error; err != nil {
		respondError(c, http.StatusNotFound, "Produto não encontrado")
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados do produto inválidos", err.Error())
		return
	}

	updates := map[string]interface{}{
		"category_id": req.CategoryID,
		"name":        req.Name,
		"description": req.Description,
		"price_cents": req.PriceCents,
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	h.DB.Model(&product).Updates(updates)
	respondOK(c, http.StatusOK, gin.H{"product": product})
}

type TableRequest struct {
	Number   int   `json:"number" binding:"required,min=1"`
	IsActive *bool `json:"is_active"`
}

// CreateTable registers a table and mints its QR token
func (h *Handler) CreateTable(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var req TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados da mesa inválidos", err.Error())
		return
	}

	table := models.Table{
		RestaurantID: restaurantID,
		Number:       req.Number,
		QRToken:      uuid.NewString(),
		IsActive:     true,
	}
	if err := h.DB.Create(&table).Error; err != nil {
		respondLedgerError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"table": table})
}

// UpdateTable toggles a table's number or active flag; the QR token is never
// rotated here so printed codes keep working.
func (h *Handler) UpdateTable(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)

	var table models.Table
	if err := h.DB.Where("id = ? AND restaurant_id = ?", c.Param("id"), restaurantID).
		First(&table).Error; err != nil {
		respondError(c, http.StatusNotFound, "Mesa não encontrada")
		return
	}

	var req TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Dados da mesa inválidos", err.Error())
		return
	}

	updates := map[string]interface{}{"number": req.Number}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	h.DB.Model(&table).Updates(updates)
	respondOK(c, http.StatusOK, gin.H{"table": table})
}

// GetStateMachineInfo documents the advisory order lifecycle
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	var transitions []gin.H
	for _, from := range statemachine.AllStatuses() {
		for _, to := range statemachine.SuggestedTransitionsFrom(from) {
			transitions = append(transitions, gin.H{"from": from, "to": to})
		}
	}
	respondOK(c, http.StatusOK, gin.H{
		"statuses":        statemachine.AllStatuses(),
		"suggested":       transitions,
		"terminal_states": []models.OrderStatus{models.StatusClosed, models.StatusCanceled},
		"description":     "Ciclo de vida do pedido MinhaComanda",
	})
}
