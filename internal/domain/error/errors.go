package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidRequest           = 4000
	CodeInvalidCardDetails       = 4001
	CodeInvalidChallengeResponse = 4002
	CodeUnknownEvent             = 4003
	CodeDuplicatePurchase        = 4004
	CodePaymentNotFound          = 4040
	CodeStatusConflict           = 4090

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeGatewayRejected    = 5020
	CodeGatewayUnavailable = 5030
	CodeDatabaseConnection = 5031
)

// Base error types
var (
	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidPurchaseID is returned when the purchase ID is empty
	ErrInvalidPurchaseID = errors.New("purchase ID cannot be empty")

	// ErrGatewayUnavailable is returned when the acquirer cannot be reached
	// or times out; the triggering action may be retried where safe
	ErrGatewayUnavailable = errors.New("acquirer gateway unavailable")

	// ErrGatewayRejected is returned when the acquirer rejects the purchase
	// creation with a validation error
	ErrGatewayRejected = errors.New("acquirer rejected the purchase")

	// ErrInvalidCardDetails is returned when the acquirer reports a client
	// error for the submitted card data
	ErrInvalidCardDetails = errors.New("invalid card details")

	// ErrInvalidChallengeResponse is returned when the acquirer reports a
	// client error for the 3DS challenge callback
	ErrInvalidChallengeResponse = errors.New("invalid challenge response")

	// ErrUnexpectedVerdict is returned when the acquirer answers the direct
	// post with a status outside the known set
	ErrUnexpectedVerdict = errors.New("unexpected payment verdict")

	// ErrDuplicatePurchase is returned when a transaction with the same
	// purchase ID already exists
	ErrDuplicatePurchase = errors.New("transaction with this purchase ID already exists")

	// ErrPaymentNotFound is returned when no transaction matches the lookup key
	ErrPaymentNotFound = errors.New("payment transaction not found")

	// ErrStatusConflict is returned when CompareAndUpdate finds the stored
	// status differs from the expected one
	ErrStatusConflict = errors.New("payment transaction status conflict")

	// ErrUnknownEvent is returned for an unrecognized webhook event type
	ErrUnknownEvent = errors.New("unknown webhook event type")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidPurchaseID):
		return CodeInvalidRequest
	case errors.Is(err, ErrInvalidCardDetails):
		return CodeInvalidCardDetails
	case errors.Is(err, ErrInvalidChallengeResponse):
		return CodeInvalidChallengeResponse
	case errors.Is(err, ErrUnknownEvent):
		return CodeUnknownEvent
	case errors.Is(err, ErrDuplicatePurchase):
		return CodeDuplicatePurchase
	case errors.Is(err, ErrPaymentNotFound):
		return CodePaymentNotFound
	case errors.Is(err, ErrStatusConflict):
		return CodeStatusConflict
	case errors.Is(err, ErrGatewayRejected), errors.Is(err, ErrUnexpectedVerdict):
		return CodeGatewayRejected
	case errors.Is(err, ErrGatewayUnavailable):
		return CodeGatewayUnavailable
	case errors.Is(err, ErrDatabaseConnection):
		return CodeDatabaseConnection
	default:
		return CodeInternalServer
	}
}

// GatewayError represents an error returned by the acquirer gateway client.
// It never carries card data; only the operation name and transport details.
type GatewayError struct {
	Operation  string
	StatusCode int
	Err        error
}

// Error implements the error interface for GatewayError
func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *GatewayError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "gateway_error",
		"operation":   e.Operation,
		"status_code": e.StatusCode,
		"error":       e.Err.Error(),
		"error_code":  ErrorCode(e.Err),
	}
}

// NewGatewayError creates a gateway error for the given operation
func NewGatewayError(operation string, statusCode int, err error) error {
	return &GatewayError{
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}

// UnknownEventError provides details about an unrecognized webhook event
type UnknownEventError struct {
	EventType  string
	PurchaseID string
}

// Error implements the error interface
func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown webhook event type %q for purchase %s", e.EventType, e.PurchaseID)
}

// Is checks if the target error is an ErrUnknownEvent
func (e *UnknownEventError) Is(target error) bool {
	return target == ErrUnknownEvent
}

// LogFields returns a map of fields for structured logging
func (e *UnknownEventError) LogFields() map[string]any {
	return map[string]any{
		"error_type":  "unknown_event",
		"event_type":  e.EventType,
		"purchase_id": e.PurchaseID,
		"error_code":  CodeUnknownEvent,
	}
}

// NewUnknownEventError creates a new detailed unknown event error
func NewUnknownEventError(eventType, purchaseID string) error {
	return &UnknownEventError{
		EventType:  eventType,
		PurchaseID: purchaseID,
	}
}

// ConflictError reports a CompareAndUpdate that lost the race: the stored
// status had already left the expected one
type ConflictError struct {
	PurchaseID     string
	ExpectedStatus string
	ActualStatus   string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return fmt.Sprintf("status conflict for purchase %s: expected %s, stored %s",
		e.PurchaseID, e.ExpectedStatus, e.ActualStatus)
}

// Is checks if the target error is an ErrStatusConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrStatusConflict
}

// LogFields returns a map of fields for structured logging
func (e *ConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type":      "status_conflict",
		"purchase_id":     e.PurchaseID,
		"expected_status": e.ExpectedStatus,
		"actual_status":   e.ActualStatus,
		"error_code":      CodeStatusConflict,
	}
}

// NewConflictError creates a new detailed status conflict error
func NewConflictError(purchaseID, expected, actual string) error {
	return &ConflictError{
		PurchaseID:     purchaseID,
		ExpectedStatus: expected,
		ActualStatus:   actual,
	}
}

// IsConflictError checks if the error is a status conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrStatusConflict)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPaymentNotFound)
}

// IsGatewayUnavailableError checks if the error is a transient gateway failure
func IsGatewayUnavailableError(err error) bool {
	return errors.Is(err, ErrGatewayUnavailable)
}

// IsDuplicatePurchaseError checks if the error is a duplicate purchase error
func IsDuplicatePurchaseError(err error) bool {
	return errors.Is(err, ErrDuplicatePurchase)
}
