package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// OrderHandler handles order HTTP requests
type OrderHandler struct {
	orderRepository     repositories.OrderRepository
	cartRepository      repositories.CartRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, userRepo repositories.UserRepository, notifService *services.NotificationService) *OrderHandler {
	return &OrderHandler{
		orderRepository:     orderRepo,
		cartRepository:      cartRepo,
		userRepository:      userRepo,
		notificationService: notifService,
	}
}

// RegisterOrderRoutes registers order-related routes
func (h *OrderHandler) RegisterOrderRoutes(g *echo.Group) {
	g.POST("/orders", h.CreateOrder)
	g.GET("/orders/purchases", h.GetPurchases)
	g.GET("/orders/sales", h.GetSales)
	g.PUT("/orders/:id/status", h.UpdateStatus)
	g.DELETE("/orders/:id", h.CancelByBuyer)
	g.DELETE("/orders/:id/sale", h.CancelBySeller)
}

// CreateOrder turns the cart into an order. The buyer's own products are
// silently dropped first; inactive products abort the checkout. Order, items
// and cart clearing commit in one transaction, then sellers are notified.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	cart, err := h.cartRepository.GetOrCreateCart(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	cartItems, err := h.cartRepository.GetCartItems(cart.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(cartItems) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Your cart is empty")
	}

	ownProductsRemoved := false
	var orderItems []models.OrderItem
	var totalAmount float64
	for i := range cartItems {
		cartItem := cartItems[i]
		if !cartItem.Product.IsActive {
			return echo.NewHTTPError(http.StatusConflict, "Product \""+cartItem.Product.Title+"\" is no longer available")
		}
		if cartItem.Product.MasterID == currentUserID {
			// Cannot buy own products; drop them from the checkout.
			if err := h.cartRepository.RemoveItem(&cartItems[i]); err != nil {
				log.Printf("Failed to drop own product %d from cart: %v", cartItem.ProductID, err)
			}
			ownProductsRemoved = true
			continue
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:     cartItem.ProductID,
			Product:       cartItem.Product,
			Quantity:      cartItem.Quantity,
			PriceAtMoment: cartItem.Product.Price,
		})
		totalAmount += cartItem.Product.Price * float64(cartItem.Quantity)
	}

	if len(orderItems) == 0 {
		if ownProductsRemoved {
			return echo.NewHTTPError(http.StatusBadRequest, "You cannot buy your own products; they were removed from the cart")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Your cart is empty")
	}

	order := &models.Order{
		CustomerID:  currentUserID,
		Status:      models.OrderStatusPlaced,
		TotalAmount: totalAmount,
	}
	if err := h.orderRepository.CreateWithItems(order, orderItems, cart.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	order.Items = orderItems

	// Fan out one notification per seller, best-effort
	buyer, err := h.userRepository.GetUserByID(currentUserID)
	if err == nil {
		h.notificationService.NotifyOrderPlaced(order, buyer)
	}

	log.Printf("Order created. Order ID: %d, User: %d, Amount: %.2f", order.ID, currentUserID, totalAmount)
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    echo.Map{"order": order, "own_products_removed": ownProductsRemoved},
	})
}

// GetPurchases lists the user's orders as a buyer
func (h *OrderHandler) GetPurchases(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	orders, err := h.orderRepository.ListByCustomer(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"orders": orders}})
}

// GetSales lists orders containing the authenticated master's products
func (h *OrderHandler) GetSales(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	orders, err := h.orderRepository.ListBySeller(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"orders": orders}})
}

// UpdateStatus lets a seller move an order containing their items forward,
// notifying the buyer.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	var req models.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !models.ValidOrderStatus(req.Status) {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown order status")
	}

	sellerItems, err := h.orderRepository.SellerItems(uint(orderID), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(sellerItems) == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "This order does not contain your products")
	}

	if err := h.orderRepository.UpdateStatus(uint(orderID), req.Status); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	order, err := h.orderRepository.GetByID(uint(orderID))
	if err == nil {
		h.notificationService.NotifyOrderStatusChanged(order)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CancelByBuyer deletes the buyer's own order, notifying every seller.
// Delivered orders cannot be cancelled.
func (h *OrderHandler) CancelByBuyer(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.orderRepository.GetByIDForCustomer(uint(orderID), currentUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if order.Status == models.OrderStatusDelivered {
		return echo.NewHTTPError(http.StatusConflict, "Delivered orders cannot be cancelled")
	}

	// Notify every seller before the order disappears
	buyer, buyerErr := h.userRepository.GetUserByID(currentUserID)
	if buyerErr == nil {
		for sellerID := range services.GroupItemsBySeller(order.Items) {
			if sellerID != currentUserID {
				h.notificationService.NotifyOrderCancelledByBuyer(order, sellerID, buyer)
			}
		}
	}

	if err := h.orderRepository.Delete(order.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	log.Printf("Order deleted by customer. Order ID: %d, User: %d", order.ID, currentUserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CancelBySeller deletes an order containing the seller's items, notifying
// the buyer.
func (h *OrderHandler) CancelBySeller(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	order, err := h.orderRepository.GetByID(uint(orderID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	sellerItems, err := h.orderRepository.SellerItems(order.ID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(sellerItems) == 0 {
		return echo.NewHTTPError(http.StatusForbidden, "This order does not contain your products")
	}

	if order.CustomerID != currentUserID {
		if seller, err := h.userRepository.GetUserByID(currentUserID); err == nil {
			h.notificationService.NotifyOrderCancelledBySeller(order, seller)
		}
	}

	if err := h.orderRepository.Delete(order.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	log.Printf("Sale order deleted by master. Order ID: %d, User: %d", order.ID, currentUserID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
