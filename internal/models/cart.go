package models

import "time"

// Cart is the single shopping cart a user owns. It is created together
// with the user and survives checkout (only its items are cleared).
type Cart struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex"`
	Items     []CartItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalPrice sums item prices; items must be loaded with their products.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].TotalPrice()
	}
	return total
}

func (c *Cart) TotalQuantity() int {
	var total int
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CartID    uint      `json:"cart_id" gorm:"index;uniqueIndex:idx_cart_product"`
	ProductID uint      `json:"product_id" gorm:"uniqueIndex:idx_cart_product"`
	Product   Product   `json:"product"`
	Quantity  int       `json:"quantity" gorm:"default:1"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
}

func (i *CartItem) TotalPrice() float64 {
	return i.Product.Price * float64(i.Quantity)
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}
