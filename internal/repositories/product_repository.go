package repositories

import (
	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for catalog operations
type ProductRepository interface {
	CreateProduct(product *models.Product) error
	GetProductByID(id uint) (*models.Product, error)
	ListCatalog(categoryID uint, query string, page, limit int) ([]models.Product, int64, error)
	ListByMaster(masterID uint) ([]models.Product, error)
	UpdateProduct(product *models.Product) error
	DeleteProduct(id uint) error
	AddImage(image *models.ProductImage) error
	HasMainImage(productID uint) (bool, error)
}

type postgresProductRepository struct {
	db *gorm.DB
}

func NewPostgresProductRepository(db *gorm.DB) ProductRepository {
	return &postgresProductRepository{db: db}
}

func (r *postgresProductRepository) CreateProduct(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *postgresProductRepository) GetProductByID(id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.Preload("Master").Preload("Category").Preload("Images").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCatalog returns active, approved products, newest first. categoryID of
// zero and an empty query disable the respective filters.
func (r *postgresProductRepository) ListCatalog(categoryID uint, query string, page, limit int) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	q := r.db.Model(&models.Product{}).Where("is_active = true AND is_approved = true")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if query != "" {
		q = q.Where("title ILIKE ? OR description ILIKE ?", "%"+query+"%", "%"+query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Preload("Master").Preload("Category").Preload("Images").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&products).Error

	return products, total, err
}

func (r *postgresProductRepository) ListByMaster(masterID uint) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Category").Preload("Images").
		Where("master_id = ?", masterID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *postgresProductRepository) UpdateProduct(product *models.Product) error {
	return r.db.Save(product).Error
}

func (r *postgresProductRepository) DeleteProduct(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

func (r *postgresProductRepository) AddImage(image *models.ProductImage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Only one main image per product.
		if image.IsMain {
			err := tx.Model(&models.ProductImage{}).
				Where("product_id = ? AND is_main = true", image.ProductID).
				Update("is_main", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(image).Error
	})
}

func (r *postgresProductRepository) HasMainImage(productID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ProductImage{}).
		Where("product_id = ? AND is_main = true", productID).
		Count(&count).Error
	return count > 0, err
}
