package models

import "time"

type Restaurant struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;not null"`
	Description string     `json:"description"`
	PixKey      string     `json:"pix_key"` // manual Pix key, used by the fallback payment mode
	IsOpen      bool       `json:"is_open" gorm:"default:true"`
	Tables      []Table    `json:"tables,omitempty" gorm:"foreignKey:RestaurantID"`
	Categories  []Category `json:"categories,omitempty" gorm:"foreignKey:RestaurantID"`
	Products    []Product  `json:"products,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Table carries the opaque QR token that authorizes customer actions against
// it — there is no customer login.
type Table struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Number       int       `json:"number" gorm:"not null"`
	QRToken      string    `json:"qr_token" gorm:"uniqueIndex;not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Category struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Position     int       `json:"position" gorm:"default:0"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;index"`
	CategoryID   uint      `json:"category_id" gorm:"index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	PriceCents   int64     `json:"price_cents" gorm:"not null"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
