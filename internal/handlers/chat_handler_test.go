package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

type memDialogueRepo struct {
	next      uint
	dialogues []*models.Dialogue
}

func (m *memDialogueRepo) GetOrCreate(productID, userA, userB uint) (*models.Dialogue, error) {
	for _, d := range m.dialogues {
		if d.ProductID == productID &&
			((d.User1ID == userA && d.User2ID == userB) || (d.User1ID == userB && d.User2ID == userA)) {
			return d, nil
		}
	}
	m.next++
	d := &models.Dialogue{ID: m.next, User1ID: userA, User2ID: userB, ProductID: productID}
	m.dialogues = append(m.dialogues, d)
	return d, nil
}

func (m *memDialogueRepo) GetByID(id uint) (*models.Dialogue, error) {
	for _, d := range m.dialogues {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memDialogueRepo) ListByUser(userID uint) ([]models.Dialogue, error) {
	var out []models.Dialogue
	for _, d := range m.dialogues {
		if d.HasParticipant(userID) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDialogueRepo) Touch(id uint) error { return nil }

func (m *memDialogueRepo) Delete(id uint) error {
	for i, d := range m.dialogues {
		if d.ID == id {
			m.dialogues = append(m.dialogues[:i], m.dialogues[i+1:]...)
			return nil
		}
	}
	return nil
}

type memMessageRepo struct {
	messages []*models.Message
}

func (m *memMessageRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memMessageRepo) GetByDialogue(ctx context.Context, dialogueID uint) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.messages {
		if msg.DialogueID == dialogueID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memMessageRepo) GetLastMessage(ctx context.Context, dialogueID uint) (*models.Message, error) {
	var last *models.Message
	for _, msg := range m.messages {
		if msg.DialogueID == dialogueID {
			last = msg
		}
	}
	if last == nil {
		return nil, nil
	}
	out := *last
	return &out, nil
}

func (m *memMessageRepo) CountByDialogue(ctx context.Context, dialogueID uint) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.DialogueID == dialogueID {
			count++
		}
	}
	return count, nil
}

func (m *memMessageRepo) CountUnreadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.DialogueID == dialogueID && !msg.IsRead && msg.SenderID != userID {
			count++
		}
	}
	return count, nil
}

func (m *memMessageRepo) MarkReadFromOthers(ctx context.Context, dialogueID, userID uint) (int64, error) {
	var count int64
	for _, msg := range m.messages {
		if msg.DialogueID == dialogueID && !msg.IsRead && msg.SenderID != userID {
			msg.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *memMessageRepo) DeleteByDialogue(ctx context.Context, dialogueID uint) error {
	var kept []*models.Message
	for _, msg := range m.messages {
		if msg.DialogueID != dialogueID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

func newChatTestHandler(dialogues *memDialogueRepo, messages *memMessageRepo, products *memProductRepo, notifRepo *memNotificationRepo) *ChatHandler {
	svc := services.NewNotificationService(notifRepo, stubUserRepo{}, nil)
	return NewChatHandler(dialogues, messages, products, stubUserRepo{}, svc)
}

func newChatTestContext(method, target string, userID uint, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = testValidator{}
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func TestStartDialogueRejectsSelf(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{
		7: {ID: 7, MasterID: 1, Title: "Vase", IsActive: true, IsApproved: true},
	}}
	dialogues := &memDialogueRepo{}
	h := newChatTestHandler(dialogues, &memMessageRepo{}, products, &memNotificationRepo{})

	c, _ := newChatTestContext(http.MethodPost, "/api/v1/products/7/dialogue", 1, "")
	c.SetParamNames("id")
	c.SetParamValues("7")

	err := h.StartDialogue(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("Self-dialogue must 400, got %v", err)
	}
	if len(dialogues.dialogues) != 0 {
		t.Error("No dialogue must be created")
	}
}

func TestStartDialogueReusesExisting(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{
		7: {ID: 7, MasterID: 1, Title: "Vase", IsActive: true, IsApproved: true},
	}}
	dialogues := &memDialogueRepo{}
	h := newChatTestHandler(dialogues, &memMessageRepo{}, products, &memNotificationRepo{})

	for i := 0; i < 2; i++ {
		c, rec := newChatTestContext(http.MethodPost, "/api/v1/products/7/dialogue", 2, "")
		c.SetParamNames("id")
		c.SetParamValues("7")
		if err := h.StartDialogue(c); err != nil {
			t.Fatalf("StartDialogue failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
	}
	if len(dialogues.dialogues) != 1 {
		t.Errorf("Repeated start must reuse the dialogue, got %d", len(dialogues.dialogues))
	}
}

func TestSendMessageNotifiesInterlocutorOnly(t *testing.T) {
	dialogues := &memDialogueRepo{}
	dialogues.GetOrCreate(7, 2, 1)
	notifRepo := &memNotificationRepo{}
	h := newChatTestHandler(dialogues, &memMessageRepo{}, &memProductRepo{}, notifRepo)

	c, rec := newChatTestContext(http.MethodPost, "/api/v1/dialogues/1/messages", 2, `{"text":"Is the vase still available?"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.SendMessage(c); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	for _, row := range notifRepo.rows {
		if row.RecipientID != 1 {
			t.Fatalf("Notification must target the interlocutor, got recipient %d", row.RecipientID)
		}
		if row.Type != models.NotificationTypeNewMessage || row.SubjectID != 1 {
			t.Fatalf("Wrong notification: %+v", row)
		}
	}
	if len(notifRepo.rows) != 1 {
		t.Fatalf("Expected exactly one notification, got %d", len(notifRepo.rows))
	}
}

func TestSendMessageRejectsEmptyAfterSanitize(t *testing.T) {
	dialogues := &memDialogueRepo{}
	dialogues.GetOrCreate(7, 2, 1)
	messages := &memMessageRepo{}
	h := newChatTestHandler(dialogues, messages, &memProductRepo{}, &memNotificationRepo{})

	// A script tag is stripped entirely by the strict policy
	c, _ := newChatTestContext(http.MethodPost, "/api/v1/dialogues/1/messages", 2, `{"text":"<script>alert(1)</script>"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.SendMessage(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("Sanitized-to-empty message must 400, got %v", err)
	}
	if len(messages.messages) != 0 {
		t.Error("No message must be stored")
	}
}

func TestOpenDialogueForbiddenForOutsiders(t *testing.T) {
	dialogues := &memDialogueRepo{}
	dialogues.GetOrCreate(7, 2, 1)
	h := newChatTestHandler(dialogues, &memMessageRepo{}, &memProductRepo{}, &memNotificationRepo{})

	c, _ := newChatTestContext(http.MethodGet, "/api/v1/dialogues/1", 3, "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.OpenDialogue(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("Non-participant must get 403, got %v", err)
	}
}

func TestOpenDialogueMarksReadAndClearsNotification(t *testing.T) {
	dialogues := &memDialogueRepo{}
	dialogues.GetOrCreate(7, 2, 1)
	messages := &memMessageRepo{}
	messages.CreateMessage(context.Background(), &models.Message{DialogueID: 1, SenderID: 1, Text: "hello"})
	notifRepo := &memNotificationRepo{}
	notifRepo.UpsertUnreadMessage(&models.Notification{
		RecipientID: 2,
		Type:        models.NotificationTypeNewMessage,
		SubjectID:   1,
	})
	h := newChatTestHandler(dialogues, messages, &memProductRepo{}, notifRepo)

	c, rec := newChatTestContext(http.MethodGet, "/api/v1/dialogues/1", 2, "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.OpenDialogue(c); err != nil {
		t.Fatalf("OpenDialogue failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	if !messages.messages[0].IsRead {
		t.Error("Interlocutor's message must be marked read on open")
	}
	if count, _ := notifRepo.UnreadCount(2); count != 0 {
		t.Errorf("Dialogue notification must be marked read, %d still unread", count)
	}
}

func TestDeleteDialogueCleansUpBothSides(t *testing.T) {
	dialogues := &memDialogueRepo{}
	dialogues.GetOrCreate(7, 2, 1)
	messages := &memMessageRepo{}
	messages.CreateMessage(context.Background(), &models.Message{DialogueID: 1, SenderID: 1, Text: "hello"})
	notifRepo := &memNotificationRepo{}
	notifRepo.Create(&models.Notification{RecipientID: 1, Type: models.NotificationTypeNewMessage, SubjectID: 1})
	notifRepo.Create(&models.Notification{RecipientID: 2, Type: models.NotificationTypeNewMessage, SubjectID: 1, IsRead: true})
	h := newChatTestHandler(dialogues, messages, &memProductRepo{}, notifRepo)

	c, _ := newChatTestContext(http.MethodDelete, "/api/v1/dialogues/1", 2, "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.DeleteDialogue(c); err != nil {
		t.Fatalf("DeleteDialogue failed: %v", err)
	}

	if len(dialogues.dialogues) != 0 {
		t.Error("Dialogue must be gone")
	}
	if len(messages.messages) != 0 {
		t.Error("Messages must be gone")
	}
	if len(notifRepo.rows) != 0 {
		t.Errorf("Both participants' notifications must be gone, %d left", len(notifRepo.rows))
	}
}
