package handlers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/A60874022/handmade-market/backend/internal/models"
	"github.com/A60874022/handmade-market/backend/internal/repositories"
	"github.com/A60874022/handmade-market/backend/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// ProductHandler handles catalog-related HTTP requests
type ProductHandler struct {
	productRepository  repositories.ProductRepository
	categoryRepository repositories.CategoryRepository
	userRepository     repositories.UserRepository
	mailService        *services.MailService
	sanitizer          *bluemonday.Policy
	uploadDir          string
	siteURL            string
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository, userRepo repositories.UserRepository, mailService *services.MailService) *ProductHandler {
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}
	return &ProductHandler{
		productRepository:  productRepo,
		categoryRepository: categoryRepo,
		userRepository:     userRepo,
		mailService:        mailService,
		sanitizer:          bluemonday.StrictPolicy(),
		uploadDir:          uploadDir,
		siteURL:            siteURL,
	}
}

// RegisterPublicRoutes registers routes that need no authentication
func (h *ProductHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/products", h.GetCatalog)
	g.GET("/products/:id", h.GetProduct)
	g.GET("/categories", h.GetCategories)
}

// RegisterProductRoutes registers authenticated product routes
func (h *ProductHandler) RegisterProductRoutes(g *echo.Group) {
	g.GET("/products/mine", h.GetMyProducts)
	g.POST("/products", h.CreateProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.POST("/products/:id/images", h.UploadImage)
	g.POST("/products/:id/approve", h.ApproveProduct)
}

// GetCatalog returns paginated active, approved products
func (h *ProductHandler) GetCatalog(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	categoryID, _ := strconv.ParseUint(c.QueryParam("category"), 10, 32)
	query := c.QueryParam("q")

	products, total, err := h.productRepository.ListCatalog(uint(categoryID), query, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"products": products},
		"meta": echo.Map{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// GetProduct returns one product. Hidden products are visible to their master only.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !product.IsVisible() && product.MasterID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, product)
}

// GetCategories lists all categories
func (h *ProductHandler) GetCategories(c echo.Context) error {
	categories, err := h.categoryRepository.ListCategories()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"categories": categories}})
}

// GetMyProducts lists the authenticated master's own products
func (h *ProductHandler) GetMyProducts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	products, err := h.productRepository.ListByMaster(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"products": products}})
}

// CreateProduct creates a product owned by the authenticated user.
// New products await moderation before appearing in the catalog.
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.CategoryID != nil {
		if _, err := h.categoryRepository.GetCategoryByID(*req.CategoryID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown category")
		}
	}

	product := &models.Product{
		MasterID:    currentUserID,
		CategoryID:  req.CategoryID,
		Title:       h.sanitizer.Sanitize(req.Title),
		Description: h.sanitizer.Sanitize(req.Description),
		Price:       req.Price,
		IsActive:    true,
	}

	if err := h.productRepository.CreateProduct(product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct updates an owned product
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if product.MasterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your product")
	}

	var req models.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Title != "" {
		product.Title = h.sanitizer.Sanitize(req.Title)
	}
	if req.Description != "" {
		product.Description = h.sanitizer.Sanitize(req.Description)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		if _, err := h.categoryRepository.GetCategoryByID(*req.CategoryID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown category")
		}
		product.CategoryID = req.CategoryID
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productRepository.UpdateProduct(product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct removes an owned product
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if product.MasterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your product")
	}

	if err := h.productRepository.DeleteProduct(product.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage stores a product image under a generated file name.
// The first uploaded image becomes the main one.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if product.MasterID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your product")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing image file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	dir := filepath.Join(h.uploadDir, "product_images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	name := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	hasMain, err := h.productRepository.HasMainImage(product.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	image := &models.ProductImage{
		ProductID: product.ID,
		Path:      path,
		IsMain:    !hasMain,
	}
	if err := h.productRepository.AddImage(image); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, image)
}

// ApproveProduct is the moderation endpoint: staff only. The previous
// approval flag is read in the same request and passed along explicitly, so
// the email fires exactly on the false-to-true transition.
func (h *ProductHandler) ApproveProduct(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	moderator, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil || !moderator.IsStaff {
		return echo.NewHTTPError(http.StatusForbidden, "Staff only")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid product ID")
	}

	product, err := h.productRepository.GetProductByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	wasApproved := product.IsApproved
	product.IsApproved = true
	if err := h.productRepository.UpdateProduct(product); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !wasApproved {
		productURL := fmt.Sprintf("%s/api/v1/products/%d", h.siteURL, product.ID)
		h.mailService.SendProductApprovedEmail(product.Master.Email, product.Master.Name, product.Title, productURL)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": product})
}
