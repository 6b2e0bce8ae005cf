package repositories

import (
	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for favorite operations
type FavoriteRepository interface {
	CreateFavorite(favorite *models.Favorite) error
	DeleteFavorite(userID, productID uint) error
	HasUserFavorited(userID, productID uint) (bool, error)
	ListByUser(userID uint) ([]models.Favorite, error)
}

type postgresFavoriteRepository struct {
	db *gorm.DB
}

func NewPostgresFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &postgresFavoriteRepository{db: db}
}

func (r *postgresFavoriteRepository) CreateFavorite(favorite *models.Favorite) error {
	return r.db.Create(favorite).Error
}

func (r *postgresFavoriteRepository) DeleteFavorite(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{}).Error
}

func (r *postgresFavoriteRepository) HasUserFavorited(userID, productID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *postgresFavoriteRepository) ListByUser(userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := r.db.Preload("Product").Preload("Product.Images").Preload("Product.Master").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, err
}
