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

func pendingTransaction(purchaseID string) *entity.PaymentTransaction {
	return &entity.PaymentTransaction{
		PurchaseID: purchaseID,
		Status:     entity.StatusPending,
	}
}

func TestService_ApplyWebhook(t *testing.T) {
	terminalEvents := []struct {
		name      string
		eventType string
		status    entity.PaymentStatus
	}{
		{"paid completes the transaction", EventPurchasePaid, entity.StatusCompleted},
		{"cancelled cancels the transaction", EventPurchaseCancelled, entity.StatusCancelled},
		{"payment_failure fails the transaction", EventPurchasePaymentFailure, entity.StatusFailed},
	}

	for _, tc := range terminalEvents {
		t.Run("should apply terminal event: "+tc.name, func(t *testing.T) {
			ctx := context.Background()
			mockStore := new(MockPaymentStore)
			mockGateway := new(MockAcquirerGateway)

			mockStore.On("GetByPurchaseID", ctx, "purchase-1").Return(pendingTransaction("purchase-1"), nil)
			mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, persistence.StatusMutation{
				Status: tc.status,
			}).Return(&entity.PaymentTransaction{PurchaseID: "purchase-1", Status: tc.status}, nil)

			service := newTestService(mockStore, mockGateway)

			err := service.ApplyWebhook(ctx, "purchase-1", tc.eventType)

			assert.NoError(t, err)
			mockStore.AssertExpectations(t)
		})
	}

	t.Run("should treat purchase.created as informational", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockStore.On("GetByPurchaseID", ctx, "purchase-1").Return(pendingTransaction("purchase-1"), nil)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyWebhook(ctx, "purchase-1", EventPurchaseCreated)

		assert.NoError(t, err)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should return not found for unknown purchase", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockStore.On("GetByPurchaseID", ctx, "missing").Return(nil, errs.ErrPaymentNotFound)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyWebhook(ctx, "missing", EventPurchasePaid)

		assert.ErrorIs(t, err, errs.ErrPaymentNotFound)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject unknown event type", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockStore.On("GetByPurchaseID", ctx, "purchase-1").Return(pendingTransaction("purchase-1"), nil)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyWebhook(ctx, "purchase-1", "purchase.exploded")

		assert.ErrorIs(t, err, errs.ErrUnknownEvent)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should absorb duplicate delivery against a terminal record", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		completed := &entity.PaymentTransaction{PurchaseID: "purchase-1", Status: entity.StatusCompleted}
		mockStore.On("GetByPurchaseID", ctx, "purchase-1").Return(completed, nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, mock.Anything).
			Return(nil, errs.NewConflictError("purchase-1", string(entity.StatusPending), string(entity.StatusCompleted)))

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyWebhook(ctx, "purchase-1", EventPurchasePaid)

		// Duplicate deliveries are accepted and discarded.
		assert.NoError(t, err)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockStore.On("GetByPurchaseID", ctx, "purchase-1").Return(pendingTransaction("purchase-1"), nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, mock.Anything).
			Return(nil, errs.ErrDatabaseConnection)

		service := newTestService(mockStore, mockGateway)

		err := service.ApplyWebhook(ctx, "purchase-1", EventPurchaseCancelled)

		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
	})
}
