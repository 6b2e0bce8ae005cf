package repositories

import (
	"context"
	"time"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository defines the interface for chat message operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetByDialogue(ctx context.Context, dialogueID uint) ([]models.Message, error)
	GetLastMessage(ctx context.Context, dialogueID uint) (*models.Message, error)
	CountByDialogue(ctx context.Context, dialogueID uint) (int64, error)
	CountUnreadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error)
	MarkReadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error)
	DeleteByDialogue(ctx context.Context, dialogueID uint) error
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *MongoMessageRepository) GetByDialogue(ctx context.Context, dialogueID uint) ([]models.Message, error) {
	var messages []models.Message
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"dialogue_id": dialogueID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MongoMessageRepository) GetLastMessage(ctx context.Context, dialogueID uint) (*models.Message, error) {
	var message models.Message
	findOptions := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"dialogue_id": dialogueID}, findOptions).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *MongoMessageRepository) CountByDialogue(ctx context.Context, dialogueID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"dialogue_id": dialogueID})
}

// CountUnreadFromOthers counts unread messages the interlocutor sent to userID.
func (r *MongoMessageRepository) CountUnreadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"dialogue_id": dialogueID,
		"is_read":     false,
		"sender_id":   bson.M{"$ne": userID},
	})
}

// MarkReadFromOthers marks every unread interlocutor message as read and
// returns how many were updated.
func (r *MongoMessageRepository) MarkReadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error) {
	res, err := r.collection.UpdateMany(ctx, bson.M{
		"dialogue_id": dialogueID,
		"is_read":     false,
		"sender_id":   bson.M{"$ne": userID},
	}, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoMessageRepository) DeleteByDialogue(ctx context.Context, dialogueID uint) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"dialogue_id": dialogueID})
	return err
}
