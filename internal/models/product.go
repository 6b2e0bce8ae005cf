package models

import "time"

// MaxProductPrice is the upper bound for a product price, in rubles.
const MaxProductPrice = 5000000

type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:100;uniqueIndex"`
	Slug string `json:"slug" gorm:"size:100;uniqueIndex"`
}

// Product is a handmade item offered by a master (the seller).
type Product struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	MasterID    uint           `json:"master_id" gorm:"index"`
	Master      User           `json:"master" gorm:"foreignKey:MasterID"`
	CategoryID  *uint          `json:"category_id" gorm:"index"`
	Category    *Category      `json:"category,omitempty"`
	Title       string         `json:"title" gorm:"size:60"`
	Description string         `json:"description" gorm:"size:300"`
	Price       float64        `json:"price" gorm:"type:numeric(10,2)"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	IsApproved  bool           `json:"is_approved" gorm:"default:false"` // Set by moderation, not by the master
	Images      []ProductImage `json:"images" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsVisible reports whether the product may appear in the public catalog.
func (p *Product) IsVisible() bool {
	return p.IsActive && p.IsApproved
}

// MainImage returns the main image, falling back to the first one.
func (p *Product) MainImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsMain {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}

type ProductImage struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ProductID uint   `json:"product_id" gorm:"index"`
	Path      string `json:"path" gorm:"size:500"`
	IsMain    bool   `json:"is_main" gorm:"default:false"`
}

// Favorite links a user to a product they bookmarked.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_favorite_user_product"`
	ProductID uint      `json:"product_id" gorm:"uniqueIndex:idx_favorite_user_product"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=60"`
	Description string  `json:"description" validate:"required,max=300"`
	Price       float64 `json:"price" validate:"required,gte=1,lte=5000000"`
	CategoryID  *uint   `json:"category_id"`
}

type UpdateProductRequest struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=2,max=60"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=300"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=1,lte=5000000"`
	CategoryID  *uint    `json:"category_id,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}
