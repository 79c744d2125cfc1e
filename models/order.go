package models

import "time"

// OrderStatus represents all possible states of a table order
type OrderStatus string

const (
	StatusAwaiting  OrderStatus = "awaiting"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusDelivered OrderStatus = "delivered"
	StatusClosed    OrderStatus = "closed"
	StatusCanceled  OrderStatus = "canceled"
)

// PaymentStatus moves forward only: unpaid → pending → paid
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// EventSource identifies who triggered a status transition
type EventSource string

const (
	SourceSystem   EventSource = "system"
	SourceAdmin    EventSource = "admin"
	SourceTelegram EventSource = "telegram"
)

type Order struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	RestaurantID  uint          `json:"restaurant_id" gorm:"not null;index"`
	Restaurant    Restaurant    `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	TableID       uint          `json:"table_id" gorm:"not null;index"`
	Table         Table         `json:"table,omitempty" gorm:"foreignKey:TableID"`
	CustomerName  string        `json:"customer_name"`
	Status        OrderStatus   `json:"status" gorm:"not null;default:'awaiting'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"not null;default:'unpaid'"`
	TotalCents    int64         `json:"total_cents" gorm:"not null"`
	PixChargeID   string        `json:"pix_charge_id,omitempty" gorm:"index"` // reconciliation key, written at most once
	Items         []OrderItem   `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Events        []OrderEvent  `json:"events,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type OrderItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    uint    `json:"order_id" gorm:"not null;index"`
	ProductID  uint    `json:"product_id" gorm:"not null"`
	Product    Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Qty        int     `json:"qty" gorm:"not null"`
	Note       string  `json:"note"`
	PriceCents int64   `json:"price_cents" gorm:"not null"` // snapshot unit price at time of order
}

// OrderEvent is the append-only audit trail of status changes. Rows are never
// updated or deleted; Order.Status is a cache of the latest event.
type OrderEvent struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	OrderID    uint         `json:"order_id" gorm:"not null;index"`
	FromStatus *OrderStatus `json:"from_status"` // nil for the creation event
	ToStatus   OrderStatus  `json:"to_status" gorm:"not null"`
	Source     EventSource  `json:"source" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at"`
}
