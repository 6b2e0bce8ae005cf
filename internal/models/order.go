package models

import "time"

// Order statuses. An order starts as placed; sellers move it forward.
const (
	OrderStatusPlaced     = "placed"
	OrderStatusInProgress = "in_progress"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPlaced, OrderStatusInProgress, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CustomerID  uint        `json:"customer_id" gorm:"index"`
	Customer    User        `json:"customer" gorm:"foreignKey:CustomerID"`
	Status      string      `json:"status" gorm:"size:20;default:placed"`
	TotalAmount float64     `json:"total_amount" gorm:"type:numeric(10,2);default:0"`
	Items       []OrderItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderItem snapshots the product price at the moment of ordering.
type OrderItem struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	OrderID       uint    `json:"order_id" gorm:"index"`
	ProductID     uint    `json:"product_id"`
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity" gorm:"default:1"`
	PriceAtMoment float64 `json:"price_at_moment" gorm:"type:numeric(10,2)"`
}

func (i *OrderItem) TotalPrice() float64 {
	return i.PriceAtMoment * float64(i.Quantity)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
