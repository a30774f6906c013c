package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/pkg/config"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

// ErrUnavailable wraps transport-level failures against the gateway: the
// caller should report a transient error and may retry with a new order id.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("payment gateway unavailable: %v", e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrRejected is a non-zero response from the STK push endpoint: no callback
// will ever arrive for this request.
type ErrRejected struct {
	Code   string
	Detail string
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("stk push rejected: %s (%s)", e.Detail, e.Code)
}

// Client talks to the Daraja (M-Pesa) API. It holds no local state beyond
// configuration; every call fetches fresh data.
type Client struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	HTTPClient     *http.Client
	Logger         *zap.Logger

	// now is swappable in tests for deterministic STK passwords
	now func() time.Time
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.MpesaConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:        cfg.BaseURL,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		ShortCode:      cfg.ShortCode,
		Passkey:        cfg.Passkey,
		HTTPClient:     &http.Client{Timeout: cfg.Timeout},
		Logger:         logger,
		now:            time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// AccessToken exchanges the configured consumer credentials for a short-lived
// bearer token. Callers must not cache it beyond a single operation.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	defer prometheus.TrackGatewayCall("token")(time.Now())

	url := fmt.Sprintf("%s/oauth/v1/generate?grant_type=client_credentials", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.ConsumerKey + ":" + c.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Token request failed", zap.Error(err))
		return "", &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read token response", zap.Error(err))
		return "", &ErrUnavailable{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("Token request returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(body)))
		return "", &ErrUnavailable{Err: fmt.Errorf("token endpoint returned %d", resp.StatusCode)}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		c.Logger.Error("Failed to parse token response", zap.Error(err))
		return "", &ErrUnavailable{Err: err}
	}

	return tokenResp.AccessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	MerchantRequestID   string `json:"MerchantRequestID"`
}

// InitiateSTKPush sends a push-payment request to the subscriber's handset.
// phone must already be in the normalized 254 form.
func (c *Client) InitiateSTKPush(ctx context.Context, token, phone string, amount int, callbackURL, accountRef, description string) (string, error) {
	defer prometheus.TrackGatewayCall("stk_push")(time.Now())

	timestamp := c.now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(c.ShortCode + c.Passkey + timestamp))

	payload := stkPushRequest{
		BusinessShortCode: c.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            amount,
		PartyA:            phone,
		PartyB:            c.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       callbackURL,
		AccountReference:  accountRef,
		TransactionDesc:   description,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/mpesa/stkpush/v1/processrequest", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.Logger.Info("Initiating STK push",
		zap.String("phone", phone),
		zap.Int("amount", amount),
		zap.String("account_ref", accountRef))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("STK push request failed", zap.Error(err))
		return "", &ErrUnavailable{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read STK push response", zap.Error(err))
		return "", &ErrUnavailable{Err: err}
	}

	var pushResp stkPushResponse
	if err := json.Unmarshal(body, &pushResp); err != nil {
		c.Logger.Error("Failed to parse STK push response",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(body)))
		return "", &ErrUnavailable{Err: err}
	}

	if pushResp.ResponseCode != "0" {
		c.Logger.Warn("STK push rejected by gateway",
			zap.String("response_code", pushResp.ResponseCode),
			zap.String("description", pushResp.ResponseDescription))
		return "", &ErrRejected{Code: pushResp.ResponseCode, Detail: pushResp.ResponseDescription}
	}

	c.Logger.Info("STK push accepted",
		zap.String("checkout_request_id", pushResp.CheckoutRequestID))
	return pushResp.CheckoutRequestID, nil
}
