package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zeloxinc/zel-shop-server/internal/activation"
	"github.com/zeloxinc/zel-shop-server/internal/model"
	"github.com/zeloxinc/zel-shop-server/internal/mpesa"
	"github.com/zeloxinc/zel-shop-server/pkg/logger"
	"github.com/zeloxinc/zel-shop-server/prometheus"
)

// Activator is the activation state machine contract the handler depends on
type Activator interface {
	InitiateActivation(ctx context.Context, phone, plan string) (*activation.PushResult, error)
	HandleCallback(ctx context.Context, orderID string, resultCode int) (*activation.CallbackResult, error)
}

// PaymentHandler serves activation initiation and the provider callback
type PaymentHandler struct {
	activation Activator
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(svc Activator) *PaymentHandler {
	return &PaymentHandler{activation: svc}
}

// InitiateActivationRequest is the payload for starting an activation payment
type InitiateActivationRequest struct {
	Phone string `json:"phone" validate:"required"`
	Plan  string `json:"plan" validate:"required"`
}

// stkCallbackBody mirrors the Daraja stkCallback envelope
type stkCallbackBody struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// InitiateActivation starts the STK push flow for a plan purchase
func (h *PaymentHandler) InitiateActivation(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.ActivationInitiatedCounter.Inc()

	var req InitiateActivationRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse activation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.activation.InitiateActivation(c.Request().Context(), req.Phone, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, activation.ErrUnknownAccount):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
		case errors.Is(err, mpesa.ErrInvalidPhone):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid phone number format"})
		case errors.Is(err, activation.ErrInvalidPlan):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid plan. Choose: daily, weekly, monthly"})
		}

		var rejected *mpesa.ErrRejected
		if errors.As(err, &rejected) {
			log.Warn("STK push rejected",
				zap.String("code", rejected.Code),
				zap.String("detail", rejected.Detail))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "STK push failed",
				"detail": rejected.Detail,
			})
		}

		var unavailable *mpesa.ErrUnavailable
		if errors.As(err, &unavailable) {
			log.Error("Payment gateway unavailable", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Payment gateway unavailable, try again later"})
		}

		log.Error("Payment initiation failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Payment initiation failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":             "STK push sent",
		"order_id":            result.OrderID,
		"amount":              result.Amount,
		"checkout_request_id": result.CheckoutRequestID,
	})
}

// ActivationCallback consumes the asynchronous payment result from the
// provider. Any processing error returns a failing status so the provider's
// retry policy engages; a swallowed error here would strand a paid account.
func (h *PaymentHandler) ActivationCallback(c echo.Context) error {
	log := logger.FromContext(c)
	orderID := c.Param("order_id")

	var body stkCallbackBody
	if err := c.Bind(&body); err != nil {
		log.Error("Failed to parse callback body",
			zap.String("order_id", orderID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid callback body"})
	}

	resultCode := body.Body.StkCallback.ResultCode
	result, err := h.activation.HandleCallback(c.Request().Context(), orderID, resultCode)
	if err != nil {
		if errors.Is(err, activation.ErrOrderNotFound) {
			prometheus.RecordCallbackOutcome("unknown_order")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		log.Error("Callback processing failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		prometheus.RecordCallbackOutcome("error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Callback processing failed"})
	}

	if result.Replayed {
		prometheus.RecordCallbackOutcome("replayed")
		return c.JSON(http.StatusOK, echo.Map{"status": result.Status, "message": "Already processed"})
	}

	if result.Status == model.PaymentFailed {
		prometheus.RecordCallbackOutcome("failed")
		return c.JSON(http.StatusOK, echo.Map{"status": "failed", "message": "Payment cancelled or failed"})
	}

	// The verification code reaches the keeper out of band (SMS); it is
	// logged here until the notification channel exists.
	// TODO: send the activation code via SMS instead of logging it.
	log.Info("Activation code issued",
		zap.String("order_id", orderID),
		zap.String("activation_code", result.ActivationCode))

	prometheus.RecordCallbackOutcome("completed")
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}
