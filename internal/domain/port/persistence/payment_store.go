package persistence

import (
	"context"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
)

// StatusMutation describes the changes CompareAndUpdate applies once the
// expected-status check passes. A nil Challenge clears any stored challenge;
// every terminal transition therefore passes Challenge nil.
type StatusMutation struct {
	Status    entity.PaymentStatus
	Challenge *entity.Challenge
}

// PaymentStore defines the operations the reconciliation logic needs from
// the transaction record store. All methods are safe for concurrent use;
// CompareAndUpdate is the single synchronization primitive the rest of the
// core relies on. Implementations must guarantee that two concurrent callers
// racing on the same purchase ID produce exactly one winner and one
// ErrStatusConflict.
type PaymentStore interface {
	// Create inserts a new transaction record
	//
	// Possible errors:
	// - ErrDuplicatePurchase: if a record with the same purchase ID exists
	// - ErrDatabaseConnection: if the backing store fails
	Create(ctx context.Context, transaction *entity.PaymentTransaction) error

	// GetByPurchaseID retrieves a transaction by its purchase ID
	//
	// Possible errors:
	// - ErrPaymentNotFound: if no record matches
	// - ErrDatabaseConnection: if the backing store fails
	GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.PaymentTransaction, error)

	// GetByChallenge retrieves the transaction whose outstanding challenge
	// matches the (contextToken, requestToken) pair. Records whose challenge
	// has been cleared never match, even with the original tokens.
	//
	// Possible errors:
	// - ErrPaymentNotFound: if no record currently holds a matching challenge
	// - ErrDatabaseConnection: if the backing store fails
	GetByChallenge(ctx context.Context, contextToken, requestToken string) (*entity.PaymentTransaction, error)

	// CompareAndUpdate atomically verifies the stored status equals
	// expectedStatus before applying the mutation, and returns the record
	// as stored after the update.
	//
	// Possible errors:
	// - ErrStatusConflict: if the stored status differs from expectedStatus
	// - ErrPaymentNotFound: if no record matches the purchase ID
	// - ErrDatabaseConnection: if the backing store fails
	CompareAndUpdate(ctx context.Context, purchaseID string, expectedStatus entity.PaymentStatus, mutation StatusMutation) (*entity.PaymentTransaction, error)
}
