package models

import "time"

// WaiterCallType is what the customer is asking for
type WaiterCallType string

const (
	CallWaiter WaiterCallType = "waiter"
	CallBill   WaiterCallType = "bill"
	CallOther  WaiterCallType = "other"
)

type WaiterCallStatus string

const (
	CallOpen         WaiterCallStatus = "open"
	CallAcknowledged WaiterCallStatus = "acknowledged"
	CallClosed       WaiterCallStatus = "closed"
)

// WaiterCall is created by a customer action and transitioned by staff.
type WaiterCall struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	RestaurantID uint             `json:"restaurant_id" gorm:"not null;index"`
	TableID      uint             `json:"table_id" gorm:"not null;index"`
	Table        Table            `json:"table,omitempty" gorm:"foreignKey:TableID"`
	Type         WaiterCallType   `json:"type" gorm:"not null"`
	Message      string           `json:"message"`
	Status       WaiterCallStatus `json:"status" gorm:"not null;default:'open'"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
