package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

func challengedTransaction(purchaseID string) *entity.PaymentTransaction {
	return &entity.PaymentTransaction{
		PurchaseID: purchaseID,
		Status:     entity.StatusPending,
		Challenge: &entity.Challenge{
			Method:       entity.ChallengeMethodPost,
			RequestToken: "pareq-1",
			ContextToken: "md-1",
			RedirectURL:  "https://acs.example/x",
			CallbackURL:  "https://acquirer.example/callback/purchase-1",
		},
	}
}

func TestService_ApplyChallengeReturn(t *testing.T) {
	t.Run("should forward challenge response and complete the transaction", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		transaction := challengedTransaction("purchase-1")
		mockStore.On("GetByChallenge", ctx, "md-1", "pareq-1").Return(transaction, nil)
		mockGateway.On("SubmitChallengeResponse", ctx, transaction.Challenge.CallbackURL, "md-1", "pareq-1").Return(nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, persistence.StatusMutation{
			Status: entity.StatusCompleted,
		}).Return(&entity.PaymentTransaction{PurchaseID: "purchase-1", Status: entity.StatusCompleted}, nil)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyChallengeReturn(ctx, "md-1", "pareq-1")

		assert.NoError(t, err)
		mockStore.AssertExpectations(t)
		mockGateway.AssertExpectations(t)
	})

	t.Run("should surface not found for unknown tokens", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockStore.On("GetByChallenge", ctx, "md-x", "pareq-x").Return(nil, errs.ErrPaymentNotFound)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyChallengeReturn(ctx, "md-x", "pareq-x")

		assert.ErrorIs(t, err, errs.ErrPaymentNotFound)
		mockGateway.AssertNotCalled(t, "SubmitChallengeResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should no-op when transaction is already reconciled", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		completed := &entity.PaymentTransaction{PurchaseID: "purchase-1", Status: entity.StatusCompleted}
		mockStore.On("GetByChallenge", ctx, "md-1", "pareq-1").Return(completed, nil)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyChallengeReturn(ctx, "md-1", "pareq-1")

		assert.NoError(t, err)
		mockGateway.AssertNotCalled(t, "SubmitChallengeResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should leave record pending when the callback call fails", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		transaction := challengedTransaction("purchase-1")
		mockStore.On("GetByChallenge", ctx, "md-1", "pareq-1").Return(transaction, nil)
		mockGateway.On("SubmitChallengeResponse", ctx, transaction.Challenge.CallbackURL, "md-1", "pareq-1").
			Return(errs.ErrGatewayUnavailable)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyChallengeReturn(ctx, "md-1", "pareq-1")

		// The redirect can be retried against the untouched record.
		assert.ErrorIs(t, err, errs.ErrGatewayUnavailable)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should absorb conflict when a webhook won the race", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		transaction := challengedTransaction("purchase-1")
		mockStore.On("GetByChallenge", ctx, "md-1", "pareq-1").Return(transaction, nil)
		mockGateway.On("SubmitChallengeResponse", ctx, transaction.Challenge.CallbackURL, "md-1", "pareq-1").Return(nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, mock.Anything).
			Return(nil, errs.NewConflictError("purchase-1", string(entity.StatusPending), string(entity.StatusFailed)))

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyChallengeReturn(ctx, "md-1", "pareq-1")

		assert.NoError(t, err)
	})
}
