package ledger

import (
	"errors"

	"minhacomanda-api/models"
	"minhacomanda-api/statemachine"

	"gorm.io/gorm"
)

const (
	MaxItemQty = 99
	MaxNoteLen = 280
)

// Ledger gates every mutation of Order.Status and Order.PaymentStatus and
// guarantees each mutation is paired with exactly one OrderEvent.
type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// NewOrderItem is an unpriced order line as submitted by the customer; the
// unit price is snapshotted from the product catalog at creation time.
type NewOrderItem struct {
	ProductID uint
	Qty       int
	Note      string
}

// CreateOrder validates the table and products, snapshots prices, and inserts
// the Order, its items, and the initial awaiting event. If item or event
// persistence fails after the Order row exists, the Order row is deleted so
// no orphan order without items survives.
func (l *Ledger) CreateOrder(restaurantID, tableID uint, customerName string, items []NewOrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "o pedido precisa de pelo menos um item"}
	}
	for _, it := range items {
		if it.Qty < 1 || it.Qty > MaxItemQty {
			return nil, &ValidationError{Field: "qty", Message: "quantidade deve estar entre 1 e 99"}
		}
		if len(it.Note) > MaxNoteLen {
			return nil, &ValidationError{Field: "note", Message: "observação deve ter no máximo 280 caracteres"}
		}
	}

	var table models.Table
	if err := l.db.Where("id = ? AND restaurant_id = ? AND is_active = ?", tableID, restaurantID, true).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	productIDs := make([]uint, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	var products []models.Product
	if err := l.db.Where("id IN ? AND restaurant_id = ? AND is_active = ?", productIDs, restaurantID, true).
		Find(&products).Error; err != nil {
		return nil, err
	}
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	var lines []LineItem
	var orderItems []models.OrderItem
	for _, it := range items {
		product, ok := productByID[it.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		lines = append(lines, LineItem{ProductID: product.ID, Qty: it.Qty, UnitPriceCents: product.PriceCents})
		orderItems = append(orderItems, models.OrderItem{
			ProductID:  product.ID,
			Qty:        it.Qty,
			Note:       it.Note,
			PriceCents: product.PriceCents,
		})
	}

	order := models.Order{
		RestaurantID:  restaurantID,
		TableID:       tableID,
		CustomerName:  customerName,
		Status:        models.StatusAwaiting,
		PaymentStatus: models.PaymentUnpaid,
		TotalCents:    CalculateOrderTotal(lines),
	}
	if err := l.db.Create(&order).Error; err != nil {
		return nil, err
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := l.db.Create(&orderItems).Error; err != nil {
		l.db.Delete(&models.Order{}, order.ID)
		return nil, err
	}

	if err := l.appendEvent(order.ID, nil, models.StatusAwaiting, models.SourceSystem); err != nil {
		l.db.Where("order_id = ?", order.ID).Delete(&models.OrderItem{})
		l.db.Delete(&models.Order{}, order.ID)
		return nil, err
	}

	order.Items = orderItems
	return &order, nil
}

// TransitionStatus writes the new status and appends exactly one OrderEvent
// with from_status set to the current status. Only set membership of the
// target status is enforced here; callers choose sensible transitions.
func (l *Ledger) TransitionStatus(orderID uint, to models.OrderStatus, source models.EventSource) (*models.Order, error) {
	if !statemachine.ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Message: "status inválido: " + string(to)}
	}

	var order models.Order
	if err := l.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	from := order.Status
	if err := l.db.Model(&order).Update("status", to).Error; err != nil {
		return nil, err
	}
	if err := l.appendEvent(order.ID, &from, to, source); err != nil {
		return nil, err
	}

	order.Status = to
	return &order, nil
}

// MarkPaid settles an order: payment_status=paid, status=closed, one audit
// event with source=system. Already-paid orders are a no-op success with no
// event, which is what makes duplicate webhook deliveries safe. The reported
// bool is true only when this call performed the settlement.
func (l *Ledger) MarkPaid(orderID uint) (*models.Order, bool, error) {
	var order models.Order
	if err := l.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrOrderNotFound
		}
		return nil, false, err
	}
	if order.PaymentStatus == models.PaymentPaid {
		return &order, false, nil
	}

	from := order.Status
	// Conditional update narrows the duplicate-settlement window between the
	// read above and this write.
	res := l.db.Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", orderID, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentPaid,
			"status":         models.StatusClosed,
		})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent settlement
		l.db.First(&order, orderID)
		return &order, false, nil
	}

	if err := l.appendEvent(orderID, &from, models.StatusClosed, models.SourceSystem); err != nil {
		return nil, false, err
	}

	order.PaymentStatus = models.PaymentPaid
	order.Status = models.StatusClosed
	return &order, true, nil
}

// AttachCharge records the provider charge id and moves payment_status to
// pending. The guard keeps a second create-charge call from overwriting an
// existing charge reference; the reported bool is false when the guard lost.
func (l *Ledger) AttachCharge(orderID uint, chargeID string) (bool, error) {
	res := l.db.Model(&models.Order{}).
		Where("id = ? AND (pix_charge_id IS NULL OR pix_charge_id = '')", orderID).
		Updates(map[string]interface{}{
			"pix_charge_id":  chargeID,
			"payment_status": models.PaymentPending,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OrderByChargeID looks an order up by its payment-provider charge id, the
// only correlation key a webhook carries.
func (l *Ledger) OrderByChargeID(chargeID string) (*models.Order, error) {
	var order models.Order
	if err := l.db.Where("pix_charge_id = ?", chargeID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (l *Ledger) appendEvent(orderID uint, from *models.OrderStatus, to models.OrderStatus, source models.EventSource) error {
	event := models.OrderEvent{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Source:     source,
	}
	return l.db.Create(&event).Error
}
