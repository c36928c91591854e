package entity

import (
	"time"

	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	tport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
)

// PaymentStatus defines possible status values for a payment transaction
type PaymentStatus string

// PaymentStatus constants
const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ChallengeMethod is the HTTP method the cardholder's browser must use when
// redirected to the bank's access-control server
type ChallengeMethod string

// Challenge methods
const (
	ChallengeMethodPost ChallengeMethod = "POST"
	ChallengeMethodGet  ChallengeMethod = "GET"
)

// Challenge holds the 3DS step-up details captured from the acquirer's
// direct post response. It is present on a transaction only while the
// transaction is pending a challenge return.
type Challenge struct {
	Method       ChallengeMethod // Redirect method declared by the acquirer
	RequestToken string          // Challenge request token (PaReq)
	ContextToken string          // Opaque session token (MD)
	RedirectURL  string          // Bank ACS URL the browser is redirected to
	CallbackURL  string          // Acquirer URL the challenge response is posted to
}

// PaymentTransaction is the authoritative record of one attempt to charge a
// card. It is created once the acquirer accepts the purchase and mutated only
// through the store's CompareAndUpdate primitive.
type PaymentTransaction struct {
	PurchaseID string        // Opaque ID assigned by the acquirer; immutable
	Status     PaymentStatus // Current reconciliation status
	Challenge  *Challenge    // Present iff a 3DS step-up is outstanding
	CreatedAt  time.Time     // When the record was created
	UpdatedAt  time.Time     // When the status last changed
}

// NewPaymentTransaction creates a pending transaction for a purchase the
// acquirer has just accepted
func NewPaymentTransaction(purchaseID string, timeProvider tport.TimeProvider) (*PaymentTransaction, error) {
	if purchaseID == "" {
		return nil, errs.ErrInvalidPurchaseID
	}

	now := timeProvider.Now()
	return &PaymentTransaction{
		PurchaseID: purchaseID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// HasChallenge reports whether a 3DS step-up is outstanding for this transaction
func (p *PaymentTransaction) HasChallenge() bool {
	return p.Challenge != nil
}

// IsTerminal reports whether the transaction has reached a final status
func (p *PaymentTransaction) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// Clone returns a deep copy of the transaction so callers can never mutate
// stored state without going through the store
func (p *PaymentTransaction) Clone() *PaymentTransaction {
	clone := *p
	if p.Challenge != nil {
		challenge := *p.Challenge
		clone.Challenge = &challenge
	}
	return &clone
}
