package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type memProductRepo struct {
	products map[uint]*models.Product
}

func (m *memProductRepo) CreateProduct(p *models.Product) error { return nil }
func (m *memProductRepo) GetProductByID(id uint) (*models.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *memProductRepo) ListCatalog(categoryID uint, query string, page, limit int) ([]models.Product, int64, error) {
	return nil, 0, nil
}
func (m *memProductRepo) ListByMaster(masterID uint) ([]models.Product, error) { return nil, nil }
func (m *memProductRepo) UpdateProduct(p *models.Product) error               { return nil }
func (m *memProductRepo) DeleteProduct(id uint) error                         { return nil }
func (m *memProductRepo) AddImage(image *models.ProductImage) error           { return nil }
func (m *memProductRepo) HasMainImage(productID uint) (bool, error)           { return false, nil }

type memCartRepo struct {
	cart  models.Cart
	items []*models.CartItem
	next  uint
}

func (m *memCartRepo) GetOrCreateCart(userID uint) (*models.Cart, error) {
	m.cart = models.Cart{ID: 1, UserID: userID}
	return &m.cart, nil
}

func (m *memCartRepo) GetCartItems(cartID uint) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range m.items {
		if item.CartID == cartID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *memCartRepo) AddProduct(cartID, productID uint) (*models.CartItem, bool, error) {
	for _, item := range m.items {
		if item.CartID == cartID && item.ProductID == productID {
			item.Quantity++
			return item, false, nil
		}
	}
	m.next++
	item := &models.CartItem{ID: m.next, CartID: cartID, ProductID: productID, Quantity: 1}
	m.items = append(m.items, item)
	return item, true, nil
}

func (m *memCartRepo) GetItemForUser(itemID, userID uint) (*models.CartItem, error) {
	for _, item := range m.items {
		if item.ID == itemID && item.CartID == m.cart.ID && m.cart.UserID == userID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCartRepo) UpdateItemQuantity(item *models.CartItem, quantity int) error {
	for _, row := range m.items {
		if row.ID == item.ID {
			row.Quantity = quantity
		}
	}
	return nil
}

func (m *memCartRepo) RemoveItem(item *models.CartItem) error {
	for i, row := range m.items {
		if row.ID == item.ID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memCartRepo) ClearCart(cartID uint) error {
	m.items = nil
	return nil
}

func newCartTestContext(method, target string, userID uint, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
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

func TestAddToCartRejectsOwnProduct(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{
		7: {ID: 7, MasterID: 1, Title: "Vase", IsActive: true, IsApproved: true},
	}}
	carts := &memCartRepo{}
	h := NewCartHandler(carts, products)

	c, _ := newCartTestContext(http.MethodPost, "/api/v1/cart/items/7", 1, "")
	c.SetParamNames("product_id")
	c.SetParamValues("7")

	err := h.AddToCart(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("Adding own product must 400, got %v", err)
	}
	if len(carts.items) != 0 {
		t.Error("Own product must not land in the cart")
	}
}

func TestAddToCartHidesUnapprovedProduct(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{
		7: {ID: 7, MasterID: 1, Title: "Vase", IsActive: true, IsApproved: false},
	}}
	h := NewCartHandler(&memCartRepo{}, products)

	c, _ := newCartTestContext(http.MethodPost, "/api/v1/cart/items/7", 2, "")
	c.SetParamNames("product_id")
	c.SetParamValues("7")

	err := h.AddToCart(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("Unapproved product must read as 404, got %v", err)
	}
}

func TestAddToCartRepeatIncrementsQuantity(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{
		7: {ID: 7, MasterID: 1, Title: "Vase", IsActive: true, IsApproved: true},
	}}
	carts := &memCartRepo{}
	h := NewCartHandler(carts, products)

	c, rec := newCartTestContext(http.MethodPost, "/api/v1/cart/items/7", 2, "")
	c.SetParamNames("product_id")
	c.SetParamValues("7")
	if err := h.AddToCart(c); err != nil {
		t.Fatalf("First add failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("First add should 201, got %d", rec.Code)
	}

	c, rec = newCartTestContext(http.MethodPost, "/api/v1/cart/items/7", 2, "")
	c.SetParamNames("product_id")
	c.SetParamValues("7")
	if err := h.AddToCart(c); err != nil {
		t.Fatalf("Second add failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Repeat add should 200, got %d", rec.Code)
	}
	if len(carts.items) != 1 || carts.items[0].Quantity != 2 {
		t.Errorf("Expected one item with quantity 2, got %d items", len(carts.items))
	}
}

func TestUpdateItemZeroQuantityDeletes(t *testing.T) {
	products := &memProductRepo{products: map[uint]*models.Product{}}
	carts := &memCartRepo{}
	carts.GetOrCreateCart(2)
	carts.items = []*models.CartItem{{ID: 1, CartID: 1, ProductID: 7, Quantity: 3}}
	h := NewCartHandler(carts, products)

	e := echo.New()
	e.Validator = testValidator{}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/1", strings.NewReader(`{"quantity":0}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", &models.JwtCustomClaims{UserID: 2})
	c.SetParamNames("id")
	c.SetParamValues("1")

	if err := h.UpdateItem(c); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Zero quantity should 204, got %d", rec.Code)
	}
	if len(carts.items) != 0 {
		t.Error("Item should be removed at quantity 0")
	}
}

// testValidator accepts everything; the handlers under test validate
// semantics themselves.
type testValidator struct{}

func (testValidator) Validate(i interface{}) error { return nil }
