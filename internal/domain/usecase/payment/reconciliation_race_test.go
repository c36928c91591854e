package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/repository"
)

// TestService_WebhookAndChallengeReturnRace runs a failure webhook and a
// challenge return against the same pending record concurrently. Whichever
// update wins, the record must end terminal with the challenge cleared and
// neither caller may see the conflict.
func TestService_WebhookAndChallengeReturnRace(t *testing.T) {
	const rounds = 50

	for i := 0; i < rounds; i++ {
		ctx := context.Background()
		tp := &fixedTimeProvider{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
		store := repository.NewMemoryPaymentStore(tp)

		mockGateway := new(MockAcquirerGateway)
		mockGateway.On("SubmitChallengeResponse", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		service := NewService(store, mockGateway, testProduct, tp, logger.NewNoopLogger())

		require.NoError(t, store.Create(ctx, &entity.PaymentTransaction{
			PurchaseID: "purchase-1",
			Status:     entity.StatusPending,
			Challenge: &entity.Challenge{
				Method:       entity.ChallengeMethodPost,
				RequestToken: "token-1",
				ContextToken: "md-1",
				CallbackURL:  "https://acquirer.example/callback",
			},
		}))

		var wg sync.WaitGroup
		var webhookErr, returnErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			webhookErr = service.ApplyWebhook(ctx, "purchase-1", EventPurchasePaymentFailure)
		}()
		go func() {
			defer wg.Done()
			returnErr = service.ApplyChallengeReturn(ctx, "md-1", "token-1")
		}()
		wg.Wait()

		// The webhook path always succeeds; the return path may find the
		// challenge already cleared by the winning webhook.
		assert.NoError(t, webhookErr)
		if returnErr != nil {
			assert.ErrorIs(t, returnErr, errs.ErrPaymentNotFound)
		}

		stored, err := store.GetByPurchaseID(ctx, "purchase-1")
		require.NoError(t, err)
		assert.True(t, stored.IsTerminal(), "round %d: status %s is not terminal", i, stored.Status)
		assert.Contains(t, []entity.PaymentStatus{entity.StatusCompleted, entity.StatusFailed}, stored.Status)
		assert.False(t, stored.HasChallenge())

		_, err = store.GetByChallenge(ctx, "md-1", "token-1")
		assert.ErrorIs(t, err, errs.ErrPaymentNotFound)
	}
}
