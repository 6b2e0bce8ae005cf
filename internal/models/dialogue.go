package models

import "time"

// Dialogue is a buyer/seller conversation about one product (PostgreSQL).
// The messages themselves live in MongoDB, keyed by the dialogue ID.
type Dialogue struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	User1ID   uint      `json:"user1_id" gorm:"index;uniqueIndex:idx_dialogue_participants"`
	User1     User      `json:"user1" gorm:"foreignKey:User1ID"`
	User2ID   uint      `json:"user2_id" gorm:"index;uniqueIndex:idx_dialogue_participants"`
	User2     User      `json:"user2" gorm:"foreignKey:User2ID"`
	ProductID uint      `json:"product_id" gorm:"uniqueIndex:idx_dialogue_participants"`
	Product   Product   `json:"product"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

// HasParticipant reports whether userID takes part in the dialogue.
func (d *Dialogue) HasParticipant(userID uint) bool {
	return d.User1ID == userID || d.User2ID == userID
}

// OtherUserID returns the interlocutor of userID, or 0 for non-participants.
func (d *Dialogue) OtherUserID(userID uint) uint {
	switch userID {
	case d.User1ID:
		return d.User2ID
	case d.User2ID:
		return d.User1ID
	}
	return 0
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}
