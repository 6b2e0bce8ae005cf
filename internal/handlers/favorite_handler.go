package handlers

import (
	"net/http"
	"strconv"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// FavoriteHandler handles HTTP requests related to favorites
type FavoriteHandler struct {
	favoriteRepository  repositories.FavoriteRepository
	productRepository   repositories.ProductRepository
	userRepository      repositories.UserRepository
	notificationService *services.NotificationService
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteRepo repositories.FavoriteRepository, productRepo repositories.ProductRepository, userRepo repositories.UserRepository, notifService *services.NotificationService) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteRepository:  favoriteRepo,
		productRepository:   productRepo,
		userRepository:      userRepo,
		notificationService: notifService,
	}
}

// RegisterFavoriteRoutes registers favorite-related routes
func (h *FavoriteHandler) RegisterFavoriteRoutes(g *echo.Group) {
	g.POST("/products/:id/favorite", h.AddFavorite)
	g.DELETE("/products/:id/favorite", h.RemoveFavorite)
	g.GET("/favorites", h.GetFavorites)
}

// AddFavorite bookmarks a product and notifies its master
func (h *FavoriteHandler) AddFavorite(c echo.Context) error {
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

	hasFavorited, err := h.favoriteRepository.HasUserFavorited(currentUserID, product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasFavorited {
		return echo.NewHTTPError(http.StatusConflict, "Product already favorited")
	}

	favorite := &models.Favorite{
		UserID:    currentUserID,
		ProductID: product.ID,
	}
	if err := h.favoriteRepository.CreateFavorite(favorite); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Notify the master, best-effort
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		h.notificationService.NotifyProductFavorited(product, actor)
	}

	return c.JSON(http.StatusCreated, favorite)
}

// RemoveFavorite removes a bookmark
func (h *FavoriteHandler) RemoveFavorite(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	if err := h.favoriteRepository.DeleteFavorite(currentUserID, uint(productID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetFavorites lists the user's bookmarked products
func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	favorites, err := h.favoriteRepository.ListByUser(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"favorites": favorites}})
}
