package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zeloxinc/zel-shop-server/internal/middleware"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

// SalesHandler serves point-of-sale upload and reporting endpoints
type SalesHandler struct {
	db *gorm.DB
}

// NewSalesHandler creates a SalesHandler
func NewSalesHandler(db *gorm.DB) *SalesHandler {
	return &SalesHandler{db: db}
}

// SaleLine is one uploaded point-of-sale transaction
type SaleLine struct {
	VariantID  uint      `json:"variant_id" validate:"required"`
	Quantity   float64   `json:"quantity" validate:"required,gt=0"`
	UnitPrice  float64   `json:"unit_price" validate:"required,gt=0"`
	TotalPrice float64   `json:"total_price"`
	SaleDate   time.Time `json:"sale_date" validate:"required"`
}

// UploadSalesRequest is the batch upload payload
type UploadSalesRequest struct {
	Sales []SaleLine `json:"sales" validate:"required,min=1,dive"`
}

// DailySummaryRow is one day of aggregated sales
type DailySummaryRow struct {
	SaleDay          time.Time `json:"sale_day"`
	TransactionCount int64     `json:"transaction_count"`
	Revenue          float64   `json:"revenue"`
}

// UploadSales inserts a batch of sales in a single transaction; either the
// whole batch applies or none of it does
func (h *SalesHandler) UploadSales(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var req UploadSalesRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse sales upload", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.db.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		for _, line := range req.Sales {
			total := line.TotalPrice
			if total == 0 {
				total = line.Quantity * line.UnitPrice
			}

			sale := model.Sale{
				ShopID:     tenant.ShopID,
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: total,
				SaleDate:   line.SaleDate,
			}
			if err := tx.Create(&sale).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Sales upload failed",
			zap.Uint("shop_id", tenant.ShopID),
			zap.Int("count", len(req.Sales)),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Upload failed"})
	}

	prometheus.SalesUploadedCounter.Add(float64(len(req.Sales)))
	log.Info("Sales uploaded",
		zap.Uint("shop_id", tenant.ShopID),
		zap.Int("count", len(req.Sales)))

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"received": len(req.Sales),
		"message":  fmt.Sprintf("%d sales uploaded successfully", len(req.Sales)),
	})
}

// ListSales returns the shop's sales, optionally filtered by date range
func (h *SalesHandler) ListSales(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	query := h.db.WithContext(c.Request().Context()).Where("shop_id = ?", tenant.ShopID)

	if start := c.QueryParam("start"); start != "" {
		query = query.Where("sale_date >= ?", start)
	}
	if end := c.QueryParam("end"); end != "" {
		query = query.Where("sale_date <= ?", end)
	}

	var sales []model.Sale
	if result := query.Order("sale_date DESC").Find(&sales); result.Error != nil {
		log.Error("Failed to list sales", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch sales"})
	}

	return c.JSON(http.StatusOK, sales)
}

// SalesByVariant returns the shop's sales for one variant
func (h *SalesHandler) SalesByVariant(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	variantID, err := strconv.ParseUint(c.Param("variant_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variant id"})
	}

	var sales []model.Sale
	result := h.db.WithContext(c.Request().Context()).
		Where("variant_id = ? AND shop_id = ?", variantID, tenant.ShopID).
		Order("sale_date DESC").
		Find(&sales)
	if result.Error != nil {
		log.Error("Failed to fetch variant sales", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch sales"})
	}

	if len(sales) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "No sales found for this variant"})
	}

	return c.JSON(http.StatusOK, sales)
}

// DailySummary returns per-day transaction counts and revenue
func (h *SalesHandler) DailySummary(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var rows []DailySummaryRow
	result := h.db.WithContext(c.Request().Context()).
		Model(&model.Sale{}).
		Select("DATE(sale_date) AS sale_day, COUNT(*) AS transaction_count, SUM(total_price) AS revenue").
		Where("shop_id = ?", tenant.ShopID).
		Group("DATE(sale_date)").
		Order("sale_day DESC").
		Scan(&rows)
	if result.Error != nil {
		log.Error("Failed to generate daily summary", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not generate summary"})
	}

	return c.JSON(http.StatusOK, rows)
}
