package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/logger"
)

var testProduct = gatewayport.Product{Name: "VIP Membership Gift Card", Price: 399}

func newTestService(store *MockPaymentStore, gateway *MockAcquirerGateway) *Service {
	tp := &fixedTimeProvider{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(store, gateway, testProduct, tp, logger.NewNoopLogger())
}

func testCreateRequest() CreateIntentRequest {
	return CreateIntentRequest{
		Email:          "buyer@example.com",
		CardholderName: "Jane Buyer",
		CardNumber:     "4444333322221111",
		Expires:        "12/29",
		CVV:            "123",
		Country:        "DE",
		ZipCode:        "10115",
		RememberCard:   "on",
		Device: gatewayport.DeviceFingerprint{
			RemoteIP:  "203.0.113.7",
			UserAgent: "test-agent",
		},
	}
}

func TestService_CreateIntent(t *testing.T) {
	handle := &gatewayport.PurchaseHandle{
		PurchaseID:    "purchase-1",
		DirectPostURL: "https://acquirer.example/p/purchase-1/",
	}

	t.Run("should complete transaction when verdict is executed", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.MatchedBy(func(tx *entity.PaymentTransaction) bool {
			return tx.PurchaseID == "purchase-1" && tx.Status == entity.StatusPending && !tx.HasChallenge()
		})).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.VerdictExecuted}, nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, persistence.StatusMutation{
			Status: entity.StatusCompleted,
		}).Return(&entity.PaymentTransaction{PurchaseID: "purchase-1", Status: entity.StatusCompleted}, nil)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, "purchase-1", result.PurchaseID)
		assert.Equal(t, IntentExecuted, result.Status)
		assert.Nil(t, result.Challenge)
		mockStore.AssertExpectations(t)
		mockGateway.AssertExpectations(t)
	})

	t.Run("should attach challenge and expose redirect fields when verdict requires 3DS", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		challenge := &entity.Challenge{
			Method:       entity.ChallengeMethodGet,
			RequestToken: "pareq-1",
			ContextToken: "md-1",
			RedirectURL:  "https://acs.example/x",
			CallbackURL:  "https://acquirer.example/callback/purchase-1",
		}

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.VerdictChallengeRequired, Challenge: challenge}, nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, persistence.StatusMutation{
			Status:    entity.StatusPending,
			Challenge: challenge,
		}).Return(&entity.PaymentTransaction{PurchaseID: "purchase-1", Status: entity.StatusPending, Challenge: challenge}, nil)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, IntentChallengeRequired, result.Status)
		assert.NotNil(t, result.Challenge)
		assert.Equal(t, entity.ChallengeMethodGet, result.Challenge.Method)
		assert.Equal(t, "pareq-1", result.Challenge.RequestToken)
		assert.Equal(t, "md-1", result.Challenge.ContextToken)
		assert.Equal(t, "https://acs.example/x", result.Challenge.RedirectURL)
		mockStore.AssertExpectations(t)
	})

	t.Run("should leave record pending when verdict is pending", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.VerdictPending}, nil)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, IntentPending, result.Status)
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should fail without creating a record when purchase creation fails", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).
			Return(nil, errs.NewGatewayError("create_purchase", 503, errs.ErrGatewayUnavailable))

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrGatewayUnavailable)
		mockStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("should surface card submission failure and leave record pending", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(nil, errs.ErrInvalidCardDetails)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrInvalidCardDetails)
		// The pending record is left untouched for a webhook to resolve.
		mockStore.AssertNotCalled(t, "CompareAndUpdate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should absorb conflict when a webhook completed the record first", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.VerdictExecuted}, nil)
		mockStore.On("CompareAndUpdate", ctx, "purchase-1", entity.StatusPending, mock.Anything).
			Return(nil, errs.NewConflictError("purchase-1", string(entity.StatusPending), string(entity.StatusCompleted)))

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.NoError(t, err)
		assert.Equal(t, IntentExecuted, result.Status)
	})

	t.Run("should fail on unknown verdict", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.Verdict("mystery")}, nil)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrUnexpectedVerdict)
	})

	t.Run("should fail when 3DS verdict arrives without challenge details", func(t *testing.T) {
		ctx := context.Background()
		mockStore := new(MockPaymentStore)
		mockGateway := new(MockAcquirerGateway)

		mockGateway.On("CreatePurchase", ctx, mock.Anything, testProduct).Return(handle, nil)
		mockStore.On("Create", ctx, mock.Anything).Return(nil)
		mockGateway.On("SubmitCardDirect", ctx, handle.DirectPostURL, mock.Anything, mock.Anything).
			Return(&gatewayport.DirectPostResult{Verdict: gatewayport.VerdictChallengeRequired}, nil)

		service := newTestService(mockStore, mockGateway)

		result, err := service.CreateIntent(ctx, testCreateRequest())

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrUnexpectedVerdict)
	})
}
