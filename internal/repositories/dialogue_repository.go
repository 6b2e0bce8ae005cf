package repositories

import (
	"errors"
	"time"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
)

// DialogueRepository defines the interface for dialogue operations
type DialogueRepository interface {
	GetOrCreate(productID, userA, userB uint) (*models.Dialogue, error)
	GetByID(id uint) (*models.Dialogue, error)
	ListByUser(userID uint) ([]models.Dialogue, error)
	Touch(id uint) error
	Delete(id uint) error
}

type postgresDialogueRepository struct {
	db *gorm.DB
}

func NewPostgresDialogueRepository(db *gorm.DB) DialogueRepository {
	return &postgresDialogueRepository{db: db}
}

// GetOrCreate finds the dialogue between the two users about the product,
// checking both participant orders, and creates it when absent.
func (r *postgresDialogueRepository) GetOrCreate(productID, userA, userB uint) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	err := r.db.Where("product_id = ? AND ((user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?))",
		productID, userA, userB, userB, userA).
		First(&dialogue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		dialogue = models.Dialogue{User1ID: userA, User2ID: userB, ProductID: productID}
		err = r.db.Create(&dialogue).Error
	}
	if err != nil {
		return nil, err
	}
	return &dialogue, nil
}

func (r *postgresDialogueRepository) GetByID(id uint) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	err := r.db.Preload("User1").Preload("User2").Preload("Product").Preload("Product.Images").
		First(&dialogue, id).Error
	if err != nil {
		return nil, err
	}
	return &dialogue, nil
}

func (r *postgresDialogueRepository) ListByUser(userID uint) ([]models.Dialogue, error) {
	var dialogues []models.Dialogue
	err := r.db.Preload("User1").Preload("User2").Preload("Product").Preload("Product.Images").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&dialogues).Error
	return dialogues, err
}

// Touch bumps updated_at so the dialogue surfaces first in listings.
func (r *postgresDialogueRepository) Touch(id uint) error {
	return r.db.Model(&models.Dialogue{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (r *postgresDialogueRepository) Delete(id uint) error {
	return r.db.Delete(&models.Dialogue{}, id).Error
}
