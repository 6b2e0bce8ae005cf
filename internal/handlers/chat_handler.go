package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// ChatHandler handles dialogue and message HTTP requests. Dialogues live in
// PostgreSQL, their messages in MongoDB.
type ChatHandler struct {
	dialogueRepository  repositories.DialogueRepository
	messageRepository   repositories.MessageRepository
	productRepository   repositories.ProductRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
	sanitizer           *bluemonday.Policy
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(dialogueRepo repositories.DialogueRepository, messageRepo repositories.MessageRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, notifService *services.NotificationService) *ChatHandler {
	return &ChatHandler{
		dialogueRepository:  dialogueRepo,
		messageRepository:   messageRepo,
		productRepository:   productRepo,
		userRepository:      userRepo,
		notificationService: notifService,
		sanitizer:           bluemonday.StrictPolicy(),
	}
}

// RegisterChatRoutes registers chat-related routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/products/:id/dialogue", h.StartDialogue)
	g.GET("/dialogues", h.GetDialogues)
	g.GET("/dialogues/:id", h.OpenDialogue)
	g.POST("/dialogues/:id/messages", h.SendMessage)
	g.DELETE("/dialogues/:id", h.DeleteDialogue)
	g.DELETE("/dialogues", h.DeleteAllDialogues)
}

// StartDialogue opens (or returns the existing) conversation between the
// authenticated user and the product's master.
func (h *ChatHandler) StartDialogue(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(productID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if product.MasterID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot start a dialogue about your own product")
	}

	dialogue, err := h.dialogueRepository.GetOrCreate(product.ID, currentUserID, product.MasterID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	log.Printf("Dialogue opened. Dialogue ID: %d, Product: %d, User: %d", dialogue.ID, product.ID, currentUserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"dialogue": dialogue}})
}

// dialoguePreview decorates a dialogue with its last message and the number
// of interlocutor messages the user has not read yet.
type dialoguePreview struct {
	Dialogue    models.Dialogue `json:"dialogue"`
	LastMessage *models.Message `json:"last_message"`
	UnreadCount int64           `json:"unread_count"`
}

// GetDialogues lists the user's dialogues, most recently active first
func (h *ChatHandler) GetDialogues(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	dialogues, err := h.dialogueRepository.ListByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	previews := make([]dialoguePreview, 0, len(dialogues))
	for _, dialogue := range dialogues {
		lastMessage, err := h.messageRepository.GetLastMessage(ctx, dialogue.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		unread, err := h.messageRepository.CountUnreadFromOthers(ctx, dialogue.ID, currentUserID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		previews = append(previews, dialoguePreview{
			Dialogue:    dialogue,
			LastMessage: lastMessage,
			UnreadCount: unread,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"dialogues": previews}})
}

// OpenDialogue returns the dialogue with its full message history. Opening
// marks the interlocutor's messages read and clears the matching unread
// notification.
func (h *ChatHandler) OpenDialogue(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	dialogue, err := h.getOwnDialogue(c, currentUserID)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	messages, err := h.messageRepository.GetByDialogue(ctx, dialogue.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.messageRepository.MarkReadFromOthers(ctx, dialogue.ID, currentUserID); err != nil {
		log.Printf("Failed to mark messages read. Dialogue ID: %d: %v", dialogue.ID, err)
	}
	h.notificationService.MarkDialogueNotificationsRead(currentUserID, dialogue.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"dialogue": dialogue, "messages": messages},
	})
}

// SendMessage posts a message into the dialogue and notifies the interlocutor
func (h *ChatHandler) SendMessage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	dialogue, err := h.getOwnDialogue(c, currentUserID)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	text := strings.TrimSpace(h.sanitizer.Sanitize(req.Text))
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message text cannot be empty")
	}

	message := &models.Message{
		DialogueID: dialogue.ID,
		SenderID:   currentUserID,
		Text:       text,
	}
	if err := h.messageRepository.CreateMessage(c.Request().Context(), message); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.dialogueRepository.Touch(dialogue.ID); err != nil {
		log.Printf("Failed to touch dialogue %d: %v", dialogue.ID, err)
	}

	// The interlocutor gets one coalesced unread notification, best-effort
	if sender, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		h.notificationService.NotifyNewMessage(sender, dialogue.OtherUserID(currentUserID), text, dialogue.ID)
	}

	return c.JSON(http.StatusCreated, message)
}

// DeleteDialogue removes the dialogue, its messages and both participants'
// message notifications about it.
func (h *ChatHandler) DeleteDialogue(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	dialogue, err := h.getOwnDialogue(c, currentUserID)
	if err != nil {
		return err
	}

	if err := h.deleteDialogue(c, dialogue); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteAllDialogues wipes the user's entire chat history
func (h *ChatHandler) DeleteAllDialogues(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	dialogues, err := h.dialogueRepository.ListByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for i := range dialogues {
		if err := h.deleteDialogue(c, &dialogues[i]); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"deleted_count": len(dialogues)}})
}

// deleteDialogue drops the messages, the notifications of both participants
// (read and unread alike) and finally the dialogue row itself.
func (h *ChatHandler) deleteDialogue(c echo.Context, dialogue *models.Dialogue) error {
	if err := h.messageRepository.DeleteByDialogue(c.Request().Context(), dialogue.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notificationService.DeleteDialogueNotifications(dialogue.User1ID, dialogue.ID)
	h.notificationService.DeleteDialogueNotifications(dialogue.User2ID, dialogue.ID)

	if err := h.dialogueRepository.Delete(dialogue.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	log.Printf("Dialogue deleted. Dialogue ID: %d", dialogue.ID)
	return nil
}

// getOwnDialogue loads the :id dialogue and checks the user participates.
func (h *ChatHandler) getOwnDialogue(c echo.Context, userID uint) (*models.Dialogue, error) {
	dialogueID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid dialogue ID")
	}

	dialogue, err := h.dialogueRepository.GetByID(uint(dialogueID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Dialogue not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !dialogue.HasParticipant(userID) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not a participant of this dialogue")
	}
	return dialogue, nil
}
