package payment

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// MockPaymentStore implements persistence.PaymentStore for tests
type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) Create(ctx context.Context, transaction *entity.PaymentTransaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockPaymentStore) GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.PaymentTransaction, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentStore) GetByChallenge(ctx context.Context, contextToken, requestToken string) (*entity.PaymentTransaction, error) {
	args := m.Called(ctx, contextToken, requestToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentTransaction), args.Error(1)
}

func (m *MockPaymentStore) CompareAndUpdate(ctx context.Context, purchaseID string, expectedStatus entity.PaymentStatus, mutation persistence.StatusMutation) (*entity.PaymentTransaction, error) {
	args := m.Called(ctx, purchaseID, expectedStatus, mutation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentTransaction), args.Error(1)
}

// MockAcquirerGateway implements gateway.AcquirerGateway for tests
type MockAcquirerGateway struct {
	mock.Mock
}

func (m *MockAcquirerGateway) CreatePurchase(ctx context.Context, buyer gatewayport.Buyer, product gatewayport.Product) (*gatewayport.PurchaseHandle, error) {
	args := m.Called(ctx, buyer, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gatewayport.PurchaseHandle), args.Error(1)
}

func (m *MockAcquirerGateway) SubmitCardDirect(ctx context.Context, directPostURL string, card gatewayport.CardDetails, device gatewayport.DeviceFingerprint) (*gatewayport.DirectPostResult, error) {
	args := m.Called(ctx, directPostURL, card, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gatewayport.DirectPostResult), args.Error(1)
}

func (m *MockAcquirerGateway) SubmitChallengeResponse(ctx context.Context, callbackURL, contextToken, responseToken string) error {
	args := m.Called(ctx, callbackURL, contextToken, responseToken)
	return args.Error(0)
}

// fixedTimeProvider returns the same instant for every call
type fixedTimeProvider struct {
	now time.Time
}

func (p *fixedTimeProvider) Now() time.Time {
	return p.now
}

func (p *fixedTimeProvider) Since(t time.Time) coreport.Duration {
	return coreport.Duration(p.now.Sub(t))
}
