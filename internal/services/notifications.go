package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// messagePreviewLimit is how many runes of a chat message survive into the
// notification body before an ellipsis is appended.
const messagePreviewLimit = 100

// maxListedTitles caps how many product titles a new-order notification lists.
const maxListedTitles = 3

// NotificationService writes the notification feed. Every operation is
// best-effort: a failure is logged and reported as false, never as an error,
// so the business action that triggered it (an order, a chat message) is
// unaffected by a broken side channel.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	pusher        Pusher
	log           zerolog.Logger
}

func NewNotificationService(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, pusher Pusher) *NotificationService {
	return &NotificationService{
		notifications: notifRepo,
		users:         userRepo,
		pusher:        pusher,
		log:           log.With().Str("component", "notifications").Logger(),
	}
}

// bestEffort is the single place the swallow-and-log policy lives.
func (s *NotificationService) bestEffort(op string, fn func() error) bool {
	if err := fn(); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("notification operation failed")
		return false
	}
	return true
}

// NotifyOrderPlaced fans out one new_order notification per distinct seller
// represented in the order's items. Each seller sees only their own products
// and the sum of only their items. The buyer's own products, if any slipped
// through, are never announced back to them.
func (s *NotificationService) NotifyOrderPlaced(order *models.Order, buyer *models.User) bool {
	ok := true
	for sellerID, items := range GroupItemsBySeller(order.Items) {
		if sellerID == buyer.ID {
			continue
		}
		n := &models.Notification{
			RecipientID: sellerID,
			Type:        models.NotificationTypeNewOrder,
			Title:       "New order!",
			Message: fmt.Sprintf("Customer %s placed an order for your products: %s. Total: %.2f.",
				buyer.Email, listTitles(items), sellerTotal(items)),
			SubjectID:   order.ID,
			SubjectType: models.SubjectTypeOrder,
			ActionURL:   "/api/v1/orders/sales",
		}
		if !s.bestEffort("notify_new_order", func() error { return s.notifications.Create(n) }) {
			ok = false
			continue
		}
		s.push(sellerID, n.Title, n.Message)
	}
	return ok
}

// NotifyOrderCancelledByBuyer tells one seller the buyer cancelled the order.
func (s *NotificationService) NotifyOrderCancelledByBuyer(order *models.Order, sellerID uint, buyer *models.User) bool {
	n := &models.Notification{
		RecipientID: sellerID,
		Type:        models.NotificationTypeOrderCancelled,
		Title:       "Order cancelled",
		Message:     fmt.Sprintf("Customer %s cancelled order #%d", buyer.Email, order.ID),
		SubjectID:   order.ID,
		SubjectType: models.SubjectTypeOrder,
		ActionURL:   "/api/v1/orders/sales",
	}
	if !s.bestEffort("notify_order_cancelled_by_buyer", func() error { return s.notifications.Create(n) }) {
		return false
	}
	s.push(sellerID, n.Title, n.Message)
	return true
}

// NotifyOrderCancelledBySeller tells the buyer a seller cancelled the order.
func (s *NotificationService) NotifyOrderCancelledBySeller(order *models.Order, seller *models.User) bool {
	n := &models.Notification{
		RecipientID: order.CustomerID,
		Type:        models.NotificationTypeOrderCancelled,
		Title:       "Order cancelled by seller",
		Message:     fmt.Sprintf("Seller %s cancelled your order #%d", seller.Email, order.ID),
		SubjectID:   order.ID,
		SubjectType: models.SubjectTypeOrder,
		ActionURL:   "/api/v1/orders/purchases",
	}
	if !s.bestEffort("notify_order_cancelled_by_seller", func() error { return s.notifications.Create(n) }) {
		return false
	}
	s.push(order.CustomerID, n.Title, n.Message)
	return true
}

// NotifyOrderStatusChanged tells the buyer the order moved to a new status.
func (s *NotificationService) NotifyOrderStatusChanged(order *models.Order) bool {
	n := &models.Notification{
		RecipientID: order.CustomerID,
		Type:        models.NotificationTypeOrderStatusChanged,
		Title:       "Order status updated",
		Message:     fmt.Sprintf("Order #%d is now %s", order.ID, order.Status),
		SubjectID:   order.ID,
		SubjectType: models.SubjectTypeOrder,
		ActionURL:   "/api/v1/orders/purchases",
	}
	if !s.bestEffort("notify_order_status_changed", func() error { return s.notifications.Create(n) }) {
		return false
	}
	s.push(order.CustomerID, n.Title, n.Message)
	return true
}

// NotifyNewMessage coalesces: however many messages arrive in a dialogue
// before the recipient reads them, exactly one unread notification exists,
// its body reflecting the most recent message. The caller must ensure
// sender != recipient.
func (s *NotificationService) NotifyNewMessage(sender *models.User, recipientID uint, messageText string, dialogueID uint) bool {
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        models.NotificationTypeNewMessage,
		Title:       "New message",
		Message:     fmt.Sprintf("%s: %s", sender.Email, truncateText(messageText, messagePreviewLimit)),
		SubjectID:   dialogueID,
		SubjectType: models.SubjectTypeDialogue,
		ActionURL:   fmt.Sprintf("/api/v1/dialogues/%d", dialogueID),
	}
	if !s.bestEffort("notify_new_message", func() error { return s.notifications.UpsertUnreadMessage(n) }) {
		return false
	}
	s.push(recipientID, n.Title, n.Message)
	return true
}

// NotifyProductFavorited tells the seller someone bookmarked their product.
func (s *NotificationService) NotifyProductFavorited(product *models.Product, actor *models.User) bool {
	if product.MasterID == actor.ID {
		return true
	}
	n := &models.Notification{
		RecipientID: product.MasterID,
		Type:        models.NotificationTypeProductFavorited,
		Title:       "Product favorited",
		Message:     fmt.Sprintf("%s added your product %q to favorites", actor.Email, product.Title),
		SubjectID:   product.ID,
		SubjectType: models.SubjectTypeProduct,
		ActionURL:   fmt.Sprintf("/api/v1/products/%d", product.ID),
	}
	if !s.bestEffort("notify_product_favorited", func() error { return s.notifications.Create(n) }) {
		return false
	}
	s.push(product.MasterID, n.Title, n.Message)
	return true
}

// MarkDialogueNotificationsRead marks the user's message notifications for
// the dialogue as read. A no-op when nothing matches.
func (s *NotificationService) MarkDialogueNotificationsRead(userID, dialogueID uint) bool {
	return s.bestEffort("mark_dialogue_read", func() error {
		return s.notifications.MarkDialogueRead(userID, dialogueID)
	})
}

// DeleteDialogueNotifications removes the user's message notifications for
// the dialogue, read and unread alike, because the dialogue itself is gone.
func (s *NotificationService) DeleteDialogueNotifications(userID, dialogueID uint) bool {
	return s.bestEffort("delete_dialogue_notifications", func() error {
		return s.notifications.DeleteByDialogue(userID, dialogueID)
	})
}

// UnreadCount is the badge endpoint's single integer. Errors read as zero.
func (s *NotificationService) UnreadCount(userID uint) int64 {
	count, err := s.notifications.UnreadCount(userID)
	if err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("unread count failed")
		return 0
	}
	return count
}

func (s *NotificationService) MarkRead(userID, notificationID uint) bool {
	ok, err := s.notifications.MarkRead(userID, notificationID)
	if err != nil {
		s.log.Error().Err(err).Str("op", "mark_read").Msg("notification operation failed")
		return false
	}
	return ok
}

func (s *NotificationService) MarkAllRead(userID uint) bool {
	return s.bestEffort("mark_all_read", func() error {
		return s.notifications.MarkAllRead(userID)
	})
}

// DeleteRead removes all of the user's read notifications and returns how
// many were deleted.
func (s *NotificationService) DeleteRead(userID uint) int64 {
	count, err := s.notifications.DeleteRead(userID)
	if err != nil {
		s.log.Error().Err(err).Str("op", "delete_read").Msg("notification operation failed")
		return 0
	}
	return count
}

// DeleteSingle removes one notification. False when the row is not the
// user's or is still unread; the caller decides how to surface that.
func (s *NotificationService) DeleteSingle(userID, notificationID uint) bool {
	ok, err := s.notifications.DeleteSingleRead(userID, notificationID)
	if err != nil {
		s.log.Error().Err(err).Str("op", "delete_single").Msg("notification operation failed")
		return false
	}
	return ok
}

// push delivers the notification to the recipient's device, if they have one
// registered. Push failure is logged and ignored.
func (s *NotificationService) push(recipientID uint, title, body string) {
	if s.pusher == nil {
		return
	}
	user, err := s.users.GetUserByID(recipientID)
	if err != nil || user.FCMToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.pusher.Push(ctx, user.FCMToken, title, body); err != nil {
		s.log.Warn().Err(err).Uint("user_id", recipientID).Msg("push delivery failed")
	}
}

// GroupItemsBySeller buckets order items by the product's master.
// Items must be loaded with their products.
func GroupItemsBySeller(items []models.OrderItem) map[uint][]models.OrderItem {
	groups := make(map[uint][]models.OrderItem)
	for _, item := range items {
		groups[item.Product.MasterID] = append(groups[item.Product.MasterID], item)
	}
	return groups
}

// listTitles names up to maxListedTitles products, then summarizes the rest.
func listTitles(items []models.OrderItem) string {
	titles := make([]string, 0, maxListedTitles)
	for i := 0; i < len(items) && i < maxListedTitles; i++ {
		titles = append(titles, items[i].Product.Title)
	}
	out := strings.Join(titles, ", ")
	if len(items) > maxListedTitles {
		out += fmt.Sprintf(" and %d more", len(items)-maxListedTitles)
	}
	return out
}

func sellerTotal(items []models.OrderItem) float64 {
	var total float64
	for i := range items {
		total += items[i].TotalPrice()
	}
	return total
}

// truncateText cuts s to max runes, appending "..." only when it was longer.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
