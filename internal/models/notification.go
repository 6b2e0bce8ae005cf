package models

import "time"

// Notification kinds. Only NotificationTypeNewMessage coalesces: at most one
// unread row per (recipient, dialogue) exists at any time.
const (
	NotificationTypeNewOrder           = "new_order"
	NotificationTypeOrderStatusChanged = "order_status_changed"
	NotificationTypeNewMessage         = "new_message"
	NotificationTypeProductFavorited   = "product_favorited"
	NotificationTypeSystem             = "system"
	NotificationTypeOrderCancelled     = "order_cancelled"
)

// Subject kinds for the weak reference carried by a notification.
const (
	SubjectTypeOrder    = "order"
	SubjectTypeDialogue = "dialogue"
	SubjectTypeProduct  = "product"
)

// Notification is a user-facing feed entry (PostgreSQL). SubjectID and
// SubjectType are a weak reference, not a foreign key: the originating
// entity may be deleted without touching its notifications.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index:idx_notifications_feed,priority:1"`
	Type        string    `json:"type" gorm:"size:30"`
	Title       string    `json:"title" gorm:"size:200"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index:idx_notifications_feed,priority:2"`
	SubjectID   uint      `json:"subject_id"`
	SubjectType string    `json:"subject_type" gorm:"size:30"`
	ActionURL   string    `json:"action_url" gorm:"size:500"`
	CreatedAt   time.Time `json:"created_at" gorm:"index:idx_notifications_feed,priority:3"`
}

// CanDelete reports whether the row may be removed individually.
// Only read notifications are deletable.
func (n *Notification) CanDelete() bool {
	return n.IsRead
}
