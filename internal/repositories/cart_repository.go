package repositories

import (
	"errors"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
)

// CartRepository defines the interface for shopping cart operations
type CartRepository interface {
	GetOrCreateCart(userID uint) (*models.Cart, error)
	GetCartItems(cartID uint) ([]models.CartItem, error)
	AddProduct(cartID, productID uint) (*models.CartItem, bool, error)
	GetItemForUser(itemID, userID uint) (*models.CartItem, error)
	UpdateItemQuantity(item *models.CartItem, quantity int) error
	RemoveItem(item *models.CartItem) error
	ClearCart(cartID uint) error
}

type postgresCartRepository struct {
	db *gorm.DB
}

func NewPostgresCartRepository(db *gorm.DB) CartRepository {
	return &postgresCartRepository{db: db}
}

// GetOrCreateCart returns the user's cart. Carts are normally created at
// signup; the create path covers users that predate that rule.
func (r *postgresCartRepository) GetOrCreateCart(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		err = r.db.Create(&cart).Error
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresCartRepository) GetCartItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.Preload("Product").Preload("Product.Master").Preload("Product.Images").
		Where("cart_id = ?", cartID).
		Order("added_at").
		Find(&items).Error
	return items, err
}

// AddProduct adds the product to the cart or increments its quantity when it
// is already there. The second result reports whether a new item was created.
func (r *postgresCartRepository) AddProduct(cartID, productID uint) (*models.CartItem, bool, error) {
	var item models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: 1}
		if err := r.db.Create(&item).Error; err != nil {
			return nil, false, err
		}
		return &item, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	item.Quantity++
	if err := r.db.Save(&item).Error; err != nil {
		return nil, false, err
	}
	return &item, false, nil
}

func (r *postgresCartRepository) GetItemForUser(itemID, userID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("cart_items.id = ? AND carts.user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresCartRepository) UpdateItemQuantity(item *models.CartItem, quantity int) error {
	return r.db.Model(item).Update("quantity", quantity).Error
}

func (r *postgresCartRepository) RemoveItem(item *models.CartItem) error {
	return r.db.Delete(item).Error
}

func (r *postgresCartRepository) ClearCart(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
