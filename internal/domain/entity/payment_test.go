package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
)

type stubTimeProvider struct {
	now time.Time
}

func (p *stubTimeProvider) Now() time.Time {
	return p.now
}

func (p *stubTimeProvider) Since(t time.Time) coreport.Duration {
	return coreport.Duration(p.now.Sub(t))
}

func TestNewPaymentTransaction(t *testing.T) {
	fixedTime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tp := &stubTimeProvider{now: fixedTime}

	t.Run("should create a pending transaction without challenge", func(t *testing.T) {
		transaction, err := NewPaymentTransaction("purchase-1", tp)

		assert.NoError(t, err)
		assert.Equal(t, "purchase-1", transaction.PurchaseID)
		assert.Equal(t, StatusPending, transaction.Status)
		assert.False(t, transaction.HasChallenge())
		assert.False(t, transaction.IsTerminal())
		assert.Equal(t, fixedTime, transaction.CreatedAt)
		assert.Equal(t, fixedTime, transaction.UpdatedAt)
	})

	t.Run("should reject empty purchase ID", func(t *testing.T) {
		transaction, err := NewPaymentTransaction("", tp)

		assert.Nil(t, transaction)
		assert.ErrorIs(t, err, errs.ErrInvalidPurchaseID)
	})
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	testCases := []struct {
		status   PaymentStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.terminal, tc.status.IsTerminal())
		})
	}
}

func TestPaymentTransaction_Clone(t *testing.T) {
	original := &PaymentTransaction{
		PurchaseID: "purchase-1",
		Status:     StatusPending,
		Challenge: &Challenge{
			Method:       ChallengeMethodPost,
			RequestToken: "pareq-1",
			ContextToken: "md-1",
			RedirectURL:  "https://acs.example/x",
			CallbackURL:  "https://acquirer.example/callback",
		},
	}

	clone := original.Clone()

	assert.Equal(t, original, clone)
	assert.NotSame(t, original, clone)
	assert.NotSame(t, original.Challenge, clone.Challenge)

	// Mutating the clone must not leak into the original.
	clone.Status = StatusCompleted
	clone.Challenge.ContextToken = "md-other"
	assert.Equal(t, StatusPending, original.Status)
	assert.Equal(t, "md-1", original.Challenge.ContextToken)
}
