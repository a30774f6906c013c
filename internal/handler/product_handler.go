package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zeloxinc/zel-shop-server/internal/middleware"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
)

// ProductHandler serves the shop-scoped product catalog
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler creates a ProductHandler
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ProductTypeRequest is the payload for creating/updating a product type
type ProductTypeRequest struct {
	Name        string `json:"name" validate:"required"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// VariantRequest is the payload for creating/updating a sellable variant
type VariantRequest struct {
	Size         string  `json:"size" validate:"required"`
	SizeUnit     string  `json:"size_unit"`
	SellUnit     string  `json:"sell_unit" validate:"required"`
	PricePerUnit float64 `json:"price_per_unit" validate:"required,gt=0"`
	CurrentStock float64 `json:"current_stock"`
	Barcode      string  `json:"barcode"`
}

// ListProducts returns all product types of the shop with variants nested
func (h *ProductHandler) ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var types []model.ProductType
	result := h.db.WithContext(c.Request().Context()).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("size")
		}).
		Where("shop_id = ?", tenant.ShopID).
		Order("name").
		Find(&types)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch products"})
	}

	return c.JSON(http.StatusOK, types)
}

// CreateProductType creates a catalog-level product for the shop
func (h *ProductHandler) CreateProductType(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var req ProductTypeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse product request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	productType := model.ProductType{
		ShopID:      tenant.ShopID,
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    req.Category,
		Description: req.Description,
	}

	if result := h.db.WithContext(c.Request().Context()).Create(&productType); result.Error != nil {
		log.Error("Failed to create product type", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not create product"})
	}

	log.Info("Product type created",
		zap.Uint("type_id", productType.ID),
		zap.String("name", productType.Name))
	return c.JSON(http.StatusCreated, productType)
}

// UpdateProductType updates a product type owned by the shop
func (h *ProductHandler) UpdateProductType(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	typeID, err := strconv.ParseUint(c.Param("type_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product type id"})
	}

	var req ProductTypeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var productType model.ProductType
	result := h.db.WithContext(c.Request().Context()).
		Where("id = ? AND shop_id = ?", typeID, tenant.ShopID).
		First(&productType)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found or access denied"})
	}

	productType.Name = req.Name
	productType.Brand = req.Brand
	productType.Category = req.Category
	productType.Description = req.Description

	if result := h.db.WithContext(c.Request().Context()).Save(&productType); result.Error != nil {
		log.Error("Failed to update product type", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not update product"})
	}

	return c.JSON(http.StatusOK, productType)
}

// AddVariant adds a sellable variant to a product type of the shop
func (h *ProductHandler) AddVariant(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	typeID, err := strconv.ParseUint(c.Param("type_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product type id"})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// The parent type must belong to the caller's shop
	var count int64
	h.db.WithContext(c.Request().Context()).Model(&model.ProductType{}).
		Where("id = ? AND shop_id = ?", typeID, tenant.ShopID).
		Count(&count)
	if count == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found or access denied"})
	}

	variant := model.ProductVariant{
		TypeID:       uint(typeID),
		ShopID:       tenant.ShopID,
		Size:         req.Size,
		SizeUnit:     req.SizeUnit,
		SellUnit:     req.SellUnit,
		PricePerUnit: req.PricePerUnit,
		CurrentStock: req.CurrentStock,
		Barcode:      req.Barcode,
	}

	if result := h.db.WithContext(c.Request().Context()).Create(&variant); result.Error != nil {
		log.Error("Failed to add variant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not add variant"})
	}

	log.Info("Variant added",
		zap.Uint("variant_id", variant.ID),
		zap.Uint64("type_id", typeID))
	return c.JSON(http.StatusCreated, variant)
}

// UpdateVariant updates a variant owned by the shop
func (h *ProductHandler) UpdateVariant(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	variantID, err := strconv.ParseUint(c.Param("variant_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant id"})
	}

	var req VariantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var variant model.ProductVariant
	result := h.db.WithContext(c.Request().Context()).
		Where("id = ? AND shop_id = ?", variantID, tenant.ShopID).
		First(&variant)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Variant not found or access denied"})
	}

	variant.Size = req.Size
	variant.SizeUnit = req.SizeUnit
	variant.SellUnit = req.SellUnit
	variant.PricePerUnit = req.PricePerUnit
	variant.CurrentStock = req.CurrentStock
	variant.Barcode = req.Barcode

	if result := h.db.WithContext(c.Request().Context()).Save(&variant); result.Error != nil {
		log.Error("Failed to update variant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not update variant"})
	}

	return c.JSON(http.StatusOK, variant)
}
