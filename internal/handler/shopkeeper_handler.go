package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/middleware"
	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

// ShopkeeperHandler serves signup, verify, login and profile endpoints
type ShopkeeperHandler struct {
	keepers store.KeeperStore
}

// NewShopkeeperHandler creates a ShopkeeperHandler
func NewShopkeeperHandler(keepers store.KeeperStore) *ShopkeeperHandler {
	return &ShopkeeperHandler{keepers: keepers}
}

// SignupRequest is the signup payload
type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// VerifyRequest is the account verification payload. The shop profile is
// optional: when present the shop is created and linked during verification.
type VerifyRequest struct {
	Phone string              `json:"phone" validate:"required"`
	Code  string              `json:"code" validate:"required"`
	Shop  *ShopProfileRequest `json:"shop,omitempty"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ShopProfileRequest carries shop profile fields
type ShopProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// Signup creates a new unverified, inactive shopkeeper
func (h *ShopkeeperHandler) Signup(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.SignupCounter.Inc()

	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse signup request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	keeper, err := h.keepers.CreateShopkeeper(c.Request().Context(), store.KeeperProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	}, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicatePhone) {
			log.Warn("Signup with already registered phone", zap.String("phone", req.Phone))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Phone already registered"})
		}
		log.Error("Failed to create shopkeeper", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Signup failed"})
	}

	log.Info("Shopkeeper registered",
		zap.String("keeper_code", keeper.KeeperCode),
		zap.String("phone", keeper.Phone))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Account created. Activate your plan to receive a verification code.",
		"keeper_id":   keeper.ID,
		"keeper_code": keeper.KeeperCode,
	})
}

// Verify consumes the single-use activation code issued by a successful
// payment and optionally creates the keeper's shop in the same request.
func (h *ShopkeeperHandler) Verify(c echo.Context) error {
	log := logger.FromContext(c)

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse verify request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	keeper, err := h.keepers.ConsumeActivationCode(ctx, req.Phone, req.Code)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCode) {
			log.Warn("Verification with invalid code", zap.String("phone", req.Phone))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or expired code"})
		}
		log.Error("Verification failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Verification failed"})
	}

	response := echo.Map{"message": "Account verified successfully"}

	if req.Shop != nil && keeper.ShopID == nil {
		shop, err := h.keepers.CreateShopForKeeper(ctx, keeper.ID, store.ShopProfile{
			Name:    req.Shop.Name,
			Phone:   req.Shop.Phone,
			Email:   req.Shop.Email,
			Address: req.Shop.Address,
		})
		if err != nil {
			log.Error("Failed to create shop during verification", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not create shop"})
		}

		log.Info("Shop created at verification",
			zap.Uint("shop_id", shop.ID),
			zap.Uint("keeper_id", keeper.ID))
		response["shop_id"] = shop.ID
		response["api_key"] = shop.APIKey
	}

	return c.JSON(http.StatusOK, response)
}

// Login authenticates a keeper by phone and password
func (h *ShopkeeperHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	keeper, err := h.keepers.VerifyCredentials(c.Request().Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			// Unknown phone and wrong password are indistinguishable
			log.Warn("Login rejected", zap.String("phone", req.Phone))
			prometheus.RecordAuthError("invalid_credentials")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
		}
		log.Error("Login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Login failed"})
	}

	if !keeper.HasValidPlan(time.Now()) {
		log.Warn("Login for inactive account", zap.String("phone", req.Phone))
		prometheus.RecordAuthError("account_inactive")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Account not active"})
	}

	response := echo.Map{
		"keeper_id":   keeper.ID,
		"keeper_code": keeper.KeeperCode,
		"first_name":  keeper.FirstName,
		"role":        keeper.Role,
		"plan_type":   keeper.PlanType,
		"due_date":    keeper.DueDate,
		"shop_id":     nil,
		"shop_name":   nil,
		"api_key":     nil,
	}
	if keeper.Shop != nil {
		response["shop_id"] = keeper.Shop.ID
		response["shop_name"] = keeper.Shop.Name
		response["api_key"] = keeper.Shop.APIKey
	}

	log.Info("Shopkeeper logged in",
		zap.String("keeper_code", keeper.KeeperCode),
		zap.String("role", keeper.Role))

	return c.JSON(http.StatusOK, response)
}

// GetProfile returns the authenticated keeper's profile with its shop
func (h *ShopkeeperHandler) GetProfile(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	keeper, err := h.keepers.GetKeeper(c.Request().Context(), tenant.KeeperID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Shopkeeper not found"})
		}
		log.Error("Failed to fetch profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch profile"})
	}

	return c.JSON(http.StatusOK, keeper)
}

// ListShopkeepers returns all keepers of the authenticated shop. Owner only.
func (h *ShopkeeperHandler) ListShopkeepers(c echo.Context) error {
	log := logger.FromContext(c)

	tenant, ok := middleware.TenantFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
	}

	if tenant.Role != "owner" {
		log.Warn("Non-owner attempted to list shopkeepers",
			zap.Uint("keeper_id", tenant.KeeperID),
			zap.String("role", tenant.Role))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Access denied. Owners only."})
	}

	keepers, err := h.keepers.ListShopKeepers(c.Request().Context(), tenant.ShopID)
	if err != nil {
		log.Error("Failed to list shopkeepers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Could not fetch shopkeepers"})
	}

	return c.JSON(http.StatusOK, keepers)
}
