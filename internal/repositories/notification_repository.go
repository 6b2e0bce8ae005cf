package repositories

import (
	"github.com/A60874022/handmade-market/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnreadMessageIndex is the partial unique index backing the coalescing rule:
// at most one unread new_message row per (recipient, dialogue). The upsert in
// UpsertUnreadMessage targets it, so the check and the write are one statement.
const UnreadMessageIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_unread_message
ON notifications (recipient_id, type, subject_id)
WHERE NOT is_read AND type = 'new_message'`

// NotificationRepository defines the interface for notification storage.
// Every query is scoped to the acting recipient; there is no way to touch
// another user's rows through this interface.
type NotificationRepository interface {
	Create(notification *models.Notification) error
	UpsertUnreadMessage(notification *models.Notification) error
	GetByRecipient(recipientID uint, page, limit int) ([]models.Notification, int64, error)
	UnreadCount(recipientID uint) (int64, error)
	MarkRead(recipientID, notificationID uint) (bool, error)
	MarkAllRead(recipientID uint) error
	MarkDialogueRead(recipientID, dialogueID uint) error
	DeleteRead(recipientID uint) (int64, error)
	DeleteSingleRead(recipientID, notificationID uint) (bool, error)
	DeleteByDialogue(recipientID, dialogueID uint) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// UpsertUnreadMessage inserts a new_message notification, or rewrites the
// body of the existing unread one for the same recipient and dialogue.
// Title and created_at of the existing row stay untouched.
func (r *postgresNotificationRepository) UpsertUnreadMessage(notification *models.Notification) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "recipient_id"},
			{Name: "type"},
			{Name: "subject_id"},
		},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "NOT is_read AND type = 'new_message'"},
		}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"message":    notification.Message,
			"action_url": notification.ActionURL,
		}),
	}).Create(notification).Error
}

func (r *postgresNotificationRepository) GetByRecipient(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	q := r.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (r *postgresNotificationRepository) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	return count, err
}

// MarkRead flips a single owned notification to read. Returns false when the
// row does not exist or belongs to someone else.
func (r *postgresNotificationRepository) MarkRead(recipientID, notificationID uint) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *postgresNotificationRepository) MarkAllRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) MarkDialogueRead(recipientID, dialogueID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ? AND subject_id = ? AND is_read = false",
			recipientID, models.NotificationTypeNewMessage, dialogueID).
		Update("is_read", true).Error
}

func (r *postgresNotificationRepository) DeleteRead(recipientID uint) (int64, error) {
	res := r.db.Where("recipient_id = ? AND is_read = true", recipientID).
		Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// DeleteSingleRead removes one notification, but only when it is owned by
// the recipient and already read.
func (r *postgresNotificationRepository) DeleteSingleRead(recipientID, notificationID uint) (bool, error) {
	res := r.db.Where("id = ? AND recipient_id = ? AND is_read = true", notificationID, recipientID).
		Delete(&models.Notification{})
	return res.RowsAffected > 0, res.Error
}

// DeleteByDialogue removes the dialogue's message notifications, read or not.
// Used when the dialogue itself is deleted, so the read-before-delete rule
// does not apply.
func (r *postgresNotificationRepository) DeleteByDialogue(recipientID, dialogueID uint) error {
	return r.db.Where("recipient_id = ? AND type = ? AND subject_id = ?",
		recipientID, models.NotificationTypeNewMessage, dialogueID).
		Delete(&models.Notification{}).Error
}
