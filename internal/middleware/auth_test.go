package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeloxinc/zel-shop-server/internal/mocks"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/store"
)

func runAuth(t *testing.T, keepers store.KeeperStore, apiKey string) (*httptest.ResponseRecorder, bool, TenantContext) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops", nil)
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var reached bool
	var tenant TenantContext
	handler := APIKeyAuth(keepers)(func(c echo.Context) error {
		reached = true
		tenant, _ = TenantFromContext(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, reached, tenant
}

func TestAPIKeyAuth(t *testing.T) {
	t.Run("missing key rejected without a store lookup", func(t *testing.T) {
		keepers := mocks.NewMockKeeperStore()
		looked := false
		keepers.ResolveAPIKeyFunc = func(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error) {
			looked = true
			return nil, nil, store.ErrInvalidKey
		}

		rec, reached, _ := runAuth(t, keepers, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
		assert.False(t, looked)
		assert.Contains(t, rec.Body.String(), "API Key required")
	})

	t.Run("invalid key rejected", func(t *testing.T) {
		rec, reached, _ := runAuth(t, mocks.NewMockKeeperStore(), "bogus")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
		assert.Contains(t, rec.Body.String(), "Invalid API Key")
	})

	t.Run("valid key attaches the tenant context", func(t *testing.T) {
		keepers := mocks.NewMockKeeperStore()
		keepers.ResolveAPIKeyFunc = func(ctx context.Context, apiKey string) (*model.Shop, *model.Shopkeeper, error) {
			assert.Equal(t, "valid-key", apiKey)
			shop := &model.Shop{ID: 42, Name: "Mama Njeri Shop", APIKey: apiKey}
			keeper := &model.Shopkeeper{ID: 7, KeeperCode: "SK26ABCDE", Role: "owner"}
			return shop, keeper, nil
		}

		rec, reached, tenant := runAuth(t, keepers, "valid-key")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
		assert.Equal(t, uint(42), tenant.ShopID)
		assert.Equal(t, uint(7), tenant.KeeperID)
		assert.Equal(t, "SK26ABCDE", tenant.KeeperCode)
		assert.Equal(t, "owner", tenant.Role)
	})
}
