package repositories

import (
	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order operations
type OrderRepository interface {
	CreateWithItems(order *models.Order, items []models.OrderItem, cartID uint) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForCustomer(id, customerID uint) (*models.Order, error)
	ListByCustomer(customerID uint) ([]models.Order, error)
	ListBySeller(masterID uint) ([]models.Order, error)
	SellerItems(orderID, masterID uint) ([]models.OrderItem, error)
	UpdateStatus(orderID uint, status string) error
	Delete(orderID uint) error
}

type postgresOrderRepository struct {
	db *gorm.DB
}

func NewPostgresOrderRepository(db *gorm.DB) OrderRepository {
	return &postgresOrderRepository{db: db}
}

// CreateWithItems persists the order, its items and the cart clearing in one
// transaction, so checkout either fully happens or not at all.
func (r *postgresOrderRepository) CreateWithItems(order *models.Order, items []models.OrderItem, cartID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		return tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
	})
}

func (r *postgresOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Customer").Preload("Items").Preload("Items.Product").
		Preload("Items.Product.Master").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresOrderRepository) GetByIDForCustomer(id, customerID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Preload("Items.Product").Preload("Items.Product.Master").
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *postgresOrderRepository) ListByCustomer(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Preload("Items.Product").Preload("Items.Product.Images").
		Preload("Items.Product.Master").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListBySeller returns orders containing at least one of the master's products.
func (r *postgresOrderRepository) ListBySeller(masterID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Customer").Preload("Items").Preload("Items.Product").
		Preload("Items.Product.Images").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.master_id = ?", masterID).
		Distinct().
		Order("orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *postgresOrderRepository) SellerItems(orderID, masterID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Preload("Product").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.master_id = ?", orderID, masterID).
		Find(&items).Error
	return items, err
}

func (r *postgresOrderRepository) UpdateStatus(orderID uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error
}

func (r *postgresOrderRepository) Delete(orderID uint) error {
	return r.db.Delete(&models.Order{}, orderID).Error
}
