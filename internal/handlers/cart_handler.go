package handlers

import (
	"net/http"
	"strconv"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// CartHandler handles shopping cart HTTP requests
type CartHandler struct {
	cartRepository    repositories.CartRepository
	productRepository repositories.ProductRepository
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartHandler {
	return &CartHandler{
		cartRepository:    cartRepo,
		productRepository: productRepo,
	}
}

// RegisterCartRoutes registers cart-related routes
func (h *CartHandler) RegisterCartRoutes(g *echo.Group) {
	g.GET("/cart", h.GetCart)
	g.POST("/cart/items/:product_id", h.AddToCart)
	g.PUT("/cart/items/:id", h.UpdateItem)
	g.DELETE("/cart/items/:id", h.RemoveItem)
}

// GetCart returns the user's cart with items and totals
func (h *CartHandler) GetCart(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	cart, err := h.cartRepository.GetOrCreateCart(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	items, err := h.cartRepository.GetCartItems(cart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cart.Items = items

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"cart":           cart,
			"total_price":    cart.TotalPrice(),
			"total_quantity": cart.TotalQuantity(),
		},
	})
}

// AddToCart puts a product into the cart. Masters cannot buy their own
// products; a repeated add bumps the quantity instead of duplicating.
func (h *CartHandler) AddToCart(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
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
	if !product.IsVisible() {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	if product.MasterID == currentUserID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot buy your own products")
	}

	cart, err := h.cartRepository.GetOrCreateCart(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	item, created, err := h.cartRepository.AddProduct(cart.ID, product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, item)
}

// UpdateItem changes an item's quantity; zero removes the item
func (h *CartHandler) UpdateItem(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item ID")
	}

	var req models.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.cartRepository.GetItemForUser(uint(itemID), currentUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Quantity == 0 {
		if err := h.cartRepository.RemoveItem(item); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.cartRepository.UpdateItemQuantity(item, req.Quantity); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	item.Quantity = req.Quantity
	return c.JSON(http.StatusOK, item)
}

// RemoveItem deletes an item from the cart
func (h *CartHandler) RemoveItem(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid item ID")
	}

	item, err := h.cartRepository.GetItemForUser(uint(itemID), currentUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.cartRepository.RemoveItem(item); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
