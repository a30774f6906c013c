package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/store"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

const tenantContextKey = "tenant"

// TenantContext identifies the shop and keeper behind a validated API key.
// Downstream handlers scope every query by ShopID from this context and
// never trust a tenant id supplied by the client.
type TenantContext struct {
	ShopID     uint
	KeeperID   uint
	KeeperCode string
	Role       string
}

// APIKeyAuth validates the X-Api-Key header against the credential store and
// attaches the tenant context to the request.
func APIKeyAuth(keepers store.KeeperStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			apiKey := c.Request().Header.Get("X-Api-Key")
			if apiKey == "" {
				// Fail fast, no store lookup for an absent credential
				prometheus.RecordAuthError("missing_api_key")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "API Key required"})
			}

			shop, keeper, err := keepers.ResolveAPIKey(c.Request().Context(), apiKey)
			if err != nil {
				// Same response whether the key never existed or was revoked
				log.Warn("API key rejected", zap.Error(err))
				prometheus.RecordAuthError("invalid_api_key")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid API Key"})
			}

			c.Set(tenantContextKey, TenantContext{
				ShopID:     shop.ID,
				KeeperID:   keeper.ID,
				KeeperCode: keeper.KeeperCode,
				Role:       keeper.Role,
			})

			log.Debug("Request authenticated",
				zap.Uint("shop_id", shop.ID),
				zap.Uint("keeper_id", keeper.ID),
				zap.String("role", keeper.Role))

			return next(c)
		}
	}
}

// TenantFromContext returns the tenant attached by APIKeyAuth
func TenantFromContext(c echo.Context) (TenantContext, bool) {
	tenant, ok := c.Get(tenantContextKey).(TenantContext)
	return tenant, ok
}
