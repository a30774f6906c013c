package mpesa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		BaseURL:        baseURL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		ShortCode:      "174379",
		Passkey:        "testpasskey",
		HTTPClient:     &http.Client{Timeout: 5 * time.Second},
		Logger:         zap.NewNop(),
		now:            func() time.Time { return time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC) },
	}
}

func TestAccessToken(t *testing.T) {
	t.Run("sends basic auth and returns the token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/oauth/v1/generate", r.URL.Path)
			assert.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))

			wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("ck:cs"))
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
		}))
		defer srv.Close()

		token, err := newTestClient(srv.URL).AccessToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("non-200 is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).AccessToken(context.Background())
		var unavailable *ErrUnavailable
		assert.ErrorAs(t, err, &unavailable)
	})

	t.Run("unreachable gateway is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := newTestClient(srv.URL).AccessToken(context.Background())
		var unavailable *ErrUnavailable
		assert.ErrorAs(t, err, &unavailable)
	})
}

func TestInitiateSTKPush(t *testing.T) {
	t.Run("accepted push returns the checkout id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/mpesa/stkpush/v1/processrequest", r.URL.Path)
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

			// password is base64(shortcode + passkey + timestamp) for the
			// injected clock
			wantTimestamp := "20260315143045"
			wantPassword := base64.StdEncoding.EncodeToString([]byte("174379testpasskey" + wantTimestamp))
			assert.Equal(t, wantTimestamp, payload["Timestamp"])
			assert.Equal(t, wantPassword, payload["Password"])
			assert.Equal(t, "CustomerPayBillOnline", payload["TransactionType"])
			assert.Equal(t, "254712345678", payload["PhoneNumber"])
			assert.Equal(t, "254712345678", payload["PartyA"])
			assert.Equal(t, "174379", payload["PartyB"])
			assert.Equal(t, float64(65), payload["Amount"])
			assert.Equal(t, "https://api.example.com/cb", payload["CallBackURL"])

			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode":        "0",
				"ResponseDescription": "Success. Request accepted for processing",
				"CheckoutRequestID":   "ws_CO_150320261430451",
				"MerchantRequestID":   "29115-34620561-1",
			})
		}))
		defer srv.Close()

		checkoutID, err := newTestClient(srv.URL).InitiateSTKPush(
			context.Background(), "tok-1", "254712345678", 65,
			"https://api.example.com/cb", "ZELSHOP-weekly", "Activate Zelshop - weekly plan")
		require.NoError(t, err)
		assert.Equal(t, "ws_CO_150320261430451", checkoutID)
	})

	t.Run("non-zero response code is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{
				"ResponseCode":        "1",
				"ResponseDescription": "Invalid Amount",
			})
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).InitiateSTKPush(
			context.Background(), "tok-1", "254712345678", 0,
			"https://api.example.com/cb", "ZELSHOP-daily", "Activate Zelshop - daily plan")

		var rejected *ErrRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "1", rejected.Code)
		assert.Equal(t, "Invalid Amount", rejected.Detail)
	})

	t.Run("garbage response is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		_, err := newTestClient(srv.URL).InitiateSTKPush(
			context.Background(), "tok-1", "254712345678", 10,
			"https://api.example.com/cb", "ZELSHOP-daily", "Activate Zelshop - daily plan")

		var unavailable *ErrUnavailable
		assert.ErrorAs(t, err, &unavailable)
	})
}
