package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// memNotificationRepo is an in-memory NotificationRepository for handler tests.
type memNotificationRepo struct {
	nextID uint
	rows   []*models.Notification
}

func (m *memNotificationRepo) Create(n *models.Notification) error {
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Now()
	m.rows = append(m.rows, n)
	return nil
}

func (m *memNotificationRepo) UpsertUnreadMessage(n *models.Notification) error {
	for _, row := range m.rows {
		if row.Type == models.NotificationTypeNewMessage && !row.IsRead &&
			row.RecipientID == n.RecipientID && row.SubjectID == n.SubjectID {
			row.Message = n.Message
			row.ActionURL = n.ActionURL
			return nil
		}
	}
	return m.Create(n)
}

func (m *memNotificationRepo) GetByRecipient(recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	var own []models.Notification
	for _, row := range m.rows {
		if row.RecipientID == recipientID {
			own = append(own, *row)
		}
	}
	total := int64(len(own))
	start := (page - 1) * limit
	if start > len(own) {
		start = len(own)
	}
	end := start + limit
	if end > len(own) {
		end = len(own)
	}
	return own[start:end], total, nil
}

func (m *memNotificationRepo) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	for _, row := range m.rows {
		if row.RecipientID == recipientID && !row.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) MarkRead(recipientID, notificationID uint) (bool, error) {
	for _, row := range m.rows {
		if row.ID == notificationID && row.RecipientID == recipientID {
			row.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationRepo) MarkAllRead(recipientID uint) error {
	for _, row := range m.rows {
		if row.RecipientID == recipientID {
			row.IsRead = true
		}
	}
	return nil
}

func (m *memNotificationRepo) MarkDialogueRead(recipientID, dialogueID uint) error {
	for _, row := range m.rows {
		if row.RecipientID == recipientID && row.Type == models.NotificationTypeNewMessage &&
			row.SubjectID == dialogueID {
			row.IsRead = true
		}
	}
	return nil
}

func (m *memNotificationRepo) DeleteRead(recipientID uint) (int64, error) {
	var kept []*models.Notification
	var deleted int64
	for _, row := range m.rows {
		if row.RecipientID == recipientID && row.IsRead {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}

func (m *memNotificationRepo) DeleteSingleRead(recipientID, notificationID uint) (bool, error) {
	for i, row := range m.rows {
		if row.ID == notificationID && row.RecipientID == recipientID && row.IsRead {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotificationRepo) DeleteByDialogue(recipientID, dialogueID uint) error {
	var kept []*models.Notification
	for _, row := range m.rows {
		if row.RecipientID == recipientID && row.Type == models.NotificationTypeNewMessage &&
			row.SubjectID == dialogueID {
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return nil
}

type stubUserRepo struct{}

func (stubUserRepo) CreateUserWithCart(user *models.User) error          { return nil }
func (stubUserRepo) GetUserByID(id uint) (*models.User, error)           { return &models.User{ID: id}, nil }
func (stubUserRepo) GetUserByEmail(email string) (*models.User, error)   { return nil, echo.ErrNotFound }
func (stubUserRepo) UpdateUser(user *models.User) error                  { return nil }
func (stubUserRepo) UpdateFCMToken(userID uint, token string) error      { return nil }

func newNotificationTestHandler(repo *memNotificationRepo) *NotificationHandler {
	svc := services.NewNotificationService(repo, stubUserRepo{}, nil)
	return NewNotificationHandler(repo, svc)
}

// newTestContext builds an echo context carrying the given user's JWT claims,
// the way JWTAuthMiddleware would.
func newTestContext(method, target string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func seedFeed(repo *memNotificationRepo, recipientID uint, count int) {
	for i := 0; i < count; i++ {
		repo.Create(&models.Notification{
			RecipientID: recipientID,
			Type:        models.NotificationTypeNewOrder,
			Title:       "New order!",
		})
	}
}

func TestGetNotificationsRequiresAuth(t *testing.T) {
	h := newNotificationTestHandler(&memNotificationRepo{})
	c, _ := newTestContext(http.MethodGet, "/api/v1/notifications", 0)

	err := h.GetNotifications(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %v", err)
	}
}

func TestGetNotificationsScopedAndPaginated(t *testing.T) {
	repo := &memNotificationRepo{}
	seedFeed(repo, 1, 25)
	seedFeed(repo, 2, 3)
	h := newNotificationTestHandler(repo)

	c, rec := newTestContext(http.MethodGet, "/api/v1/notifications", 1)
	if err := h.GetNotifications(c); err != nil {
		t.Fatalf("GetNotifications failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Data struct {
			Notifications []models.Notification `json:"notifications"`
			Total         int64                 `json:"total"`
			Page          int                   `json:"page"`
			Limit         int                   `json:"limit"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if body.Data.Total != 25 {
		t.Errorf("Expected total 25 (user 2's rows excluded), got %d", body.Data.Total)
	}
	if len(body.Data.Notifications) != 20 {
		t.Errorf("Expected default page size 20, got %d", len(body.Data.Notifications))
	}
	for _, n := range body.Data.Notifications {
		if n.RecipientID != 1 {
			t.Fatalf("Leaked notification of user %d", n.RecipientID)
		}
	}
}

func TestGetUnreadCount(t *testing.T) {
	repo := &memNotificationRepo{}
	seedFeed(repo, 1, 4)
	repo.rows[0].IsRead = true
	h := newNotificationTestHandler(repo)

	c, rec := newTestContext(http.MethodGet, "/api/v1/notifications/unread-count", 1)
	if err := h.GetUnreadCount(c); err != nil {
		t.Fatalf("GetUnreadCount failed: %v", err)
	}

	var body struct {
		Data struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if body.Data.UnreadCount != 3 {
		t.Errorf("Expected 3 unread, got %d", body.Data.UnreadCount)
	}
}

func TestMarkReadNotFoundForForeignRow(t *testing.T) {
	repo := &memNotificationRepo{}
	seedFeed(repo, 2, 1)
	h := newNotificationTestHandler(repo)

	c, _ := newTestContext(http.MethodPut, "/api/v1/notifications/1/read", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.MarkRead(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("Marking a foreign notification must 404, got %v", err)
	}
	if repo.rows[0].IsRead {
		t.Error("Foreign notification must not be modified")
	}
}

func TestDeleteNotificationRequiresReadFirst(t *testing.T) {
	repo := &memNotificationRepo{}
	seedFeed(repo, 1, 1)
	h := newNotificationTestHandler(repo)

	c, _ := newTestContext(http.MethodDelete, "/api/v1/notifications/1", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.DeleteNotification(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("Deleting an unread notification must fail, got %v", err)
	}

	c, rec := newTestContext(http.MethodPut, "/api/v1/notifications/1/read", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 from MarkRead, got %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodDelete, "/api/v1/notifications/1", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.DeleteNotification(c); err != nil {
		t.Fatalf("DeleteNotification after read failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(repo.rows) != 0 {
		t.Error("Notification should be gone")
	}
}

func TestMarkAllReadThenDeleteRead(t *testing.T) {
	repo := &memNotificationRepo{}
	seedFeed(repo, 1, 5)
	seedFeed(repo, 2, 2)
	h := newNotificationTestHandler(repo)

	c, _ := newTestContext(http.MethodPut, "/api/v1/notifications/read-all", 1)
	if err := h.MarkAllRead(c); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	c, rec := newTestContext(http.MethodDelete, "/api/v1/notifications/read", 1)
	if err := h.DeleteRead(c); err != nil {
		t.Fatalf("DeleteRead failed: %v", err)
	}

	var body struct {
		Data struct {
			DeletedCount int64 `json:"deleted_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if body.Data.DeletedCount != 5 {
		t.Errorf("Expected 5 deleted, got %d", body.Data.DeletedCount)
	}
	// User 2's unread rows are untouched
	if count, _ := repo.UnreadCount(2); count != 2 {
		t.Errorf("User 2's feed must be untouched, got %d unread", count)
	}
}

func TestInvalidNotificationID(t *testing.T) {
	h := newNotificationTestHandler(&memNotificationRepo{})

	c, _ := newTestContext(http.MethodPut, "/api/v1/notifications/abc/read", 1)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := h.MarkRead(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-numeric ID, got %v", err)
	}
}
