package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single chat message (MongoDB).
type Message struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DialogueID uint               `json:"dialogue_id" bson:"dialogue_id"`
	SenderID   uint               `json:"sender_id" bson:"sender_id"`
	Text       string             `json:"text" bson:"text"`
	IsRead     bool               `json:"is_read" bson:"is_read"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
