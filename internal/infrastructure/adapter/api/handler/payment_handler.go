package handler

import (
	"errors"
	"net/http"
	"regexp"

	domainerr "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	paymentUseCase "github.com/amirhossein-jamali/payment-reconciler/internal/domain/usecase/payment"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// expiresPattern matches the MM/YY card expiry format
var expiresPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *paymentUseCase.Service
	logger         coreport.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(paymentService *paymentUseCase.Service, logger coreport.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreatePaymentIntent handles the POST /payments endpoint
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req dto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The bind error may echo request values, so only its type is logged.
		h.logger.Warn("Invalid payment intent request format", nil)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidRequest,
			Message: "Invalid request format",
		})
		return
	}

	if !expiresPattern.MatchString(req.Expires) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidRequest,
			Message: "Invalid expiry date, expected MM/YY",
		})
		return
	}

	// The device fingerprint combines what the browser reported with what
	// the request itself shows.
	device := gatewayport.DeviceFingerprint{
		RemoteIP:          c.ClientIP(),
		UserAgent:         c.Request.UserAgent(),
		AcceptHeader:      c.GetHeader("Accept"),
		Language:          c.GetHeader("Accept-Language"),
		JavaEnabled:       req.JavaEnabled,
		JavascriptEnabled: req.JavascriptEnabled,
		ColorDepth:        req.ColorDepth,
		UTCOffset:         req.UTCOffset,
		ScreenWidth:       req.ScreenWidth,
		ScreenHeight:      req.ScreenHeight,
	}

	result, err := h.paymentService.CreateIntent(c.Request.Context(), paymentUseCase.CreateIntentRequest{
		Email:          req.Email,
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		Expires:        req.Expires,
		CVV:            req.CVV,
		Country:        req.Country,
		ZipCode:        req.ZipCode,
		RememberCard:   req.RememberCard,
		Device:         device,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := dto.PaymentIntentResponse{
		Status: string(result.Status),
	}
	if result.Challenge != nil {
		response.Challenge = &dto.ChallengeResponse{
			Method:       string(result.Challenge.Method),
			RequestToken: result.Challenge.RequestToken,
			ContextToken: result.Challenge.ContextToken,
			RedirectURL:  result.Challenge.RedirectURL,
		}
	}

	c.JSON(http.StatusCreated, response)
}

// HandleWebhook handles the POST /payments/webhook endpoint. Duplicate and
// already-reconciled events are acknowledged with success so the acquirer
// stops redelivering them.
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	var req dto.WebhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid webhook request format", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidRequest,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	if err := h.paymentService.ApplyWebhook(c.Request.Context(), req.PurchaseID, req.EventType); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleChallengeReturn handles the POST /payments/3ds/redirect endpoint
func (h *PaymentHandler) HandleChallengeReturn(c *gin.Context) {
	var req dto.ChallengeReturnRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("Invalid challenge return request format", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeInvalidRequest,
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	if err := h.paymentService.ApplyChallengeReturn(c.Request.Context(), req.ContextToken, req.ResponseToken); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondError translates a domain error into a transport response
func (h *PaymentHandler) respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", map[string]any{
			"path":   c.Request.URL.Path,
			"status": status,
			"error":  err.Error(),
		})
	}

	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: publicMessage(err),
	})
}

// httpStatus maps the domain error taxonomy onto HTTP status codes
func httpStatus(err error) int {
	switch {
	case domainerr.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, domainerr.ErrInvalidCardDetails),
		errors.Is(err, domainerr.ErrInvalidChallengeResponse),
		errors.Is(err, domainerr.ErrUnknownEvent),
		errors.Is(err, domainerr.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domainerr.ErrGatewayRejected), errors.Is(err, domainerr.ErrUnexpectedVerdict):
		return http.StatusBadGateway
	case domainerr.IsGatewayUnavailableError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps acquirer and store internals out of API responses
func publicMessage(err error) string {
	switch {
	case domainerr.IsNotFoundError(err):
		return "Payment transaction not found"
	case errors.Is(err, domainerr.ErrInvalidCardDetails):
		return "Invalid payment details"
	case errors.Is(err, domainerr.ErrInvalidChallengeResponse):
		return "Payment callback invalid"
	case errors.Is(err, domainerr.ErrUnknownEvent):
		return "Unknown event type"
	case errors.Is(err, domainerr.ErrGatewayRejected), errors.Is(err, domainerr.ErrUnexpectedVerdict):
		return "Unable to process payment"
	case domainerr.IsGatewayUnavailableError(err):
		return "Payment processor unavailable"
	default:
		return "Internal server error"
	}
}
