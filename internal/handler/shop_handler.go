package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/middleware"
	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
)

// ShopHandler serves the tenant's shop profile endpoints
type ShopHandler struct {
	keepers store.KeeperStore
}

// NewShopHandler creates a ShopHandler
func NewShopHandler(keepers store.KeeperStore) *ShopHandler {
	return &ShopHandler{keepers: keepers}
}

// CreateShop creates a shop for a verified keeper that has none yet and
// links the keeper to it in one transaction
func (h *ShopHandler) CreateShop(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var req ShopProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse shop request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	shop, err := h.keepers.CreateShopForKeeper(c.Request().Context(), tenant.KeeperID, store.ShopProfile{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		log.Error("Failed to create shop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not create shop"})
	}

	log.Info("Shop created",
		zap.Uint("shop_id", shop.ID),
		zap.Uint("keeper_id", tenant.KeeperID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Shop created successfully",
		"shop_id": shop.ID,
		"api_key": shop.APIKey,
	})
}

// GetShop returns the authenticated tenant's shop
func (h *ShopHandler) GetShop(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	shop, err := h.keepers.GetShop(c.Request().Context(), tenant.ShopID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shop not found"})
		}
		log.Error("Failed to fetch shop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch shop"})
	}

	return c.JSON(http.StatusOK, shop)
}

// GetShopByID returns a shop by id, restricted to the caller's own tenant
func (h *ShopHandler) GetShopByID(c echo.Context) error {
	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	shopID, err := strconv.ParseUint(c.Param("shop_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shop id"})
	}

	// Tenant isolation: a shop can only read itself
	if uint(shopID) != tenant.ShopID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Shop not found"})
	}

	return h.GetShop(c)
}

// UpdateShop updates the authenticated tenant's shop profile
func (h *ShopHandler) UpdateShop(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	var req ShopProfileRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse shop update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	shop, err := h.keepers.UpdateShop(c.Request().Context(), tenant.ShopID, store.ShopProfile{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shop not found"})
		}
		log.Error("Failed to update shop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not update shop"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Shop updated successfully",
		"shop":    shop,
	})
}

// DeleteShop unlinks all keepers and removes the tenant's shop
func (h *ShopHandler) DeleteShop(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	if tenant.Role != "owner" {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied. Owners only."})
	}

	if err := h.keepers.DeleteShop(c.Request().Context(), tenant.ShopID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shop not found"})
		}
		log.Error("Failed to delete shop", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not delete shop"})
	}

	log.Info("Shop deleted", zap.Uint("shop_id", tenant.ShopID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Shop deleted successfully"})
}
