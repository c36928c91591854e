package payment

import (
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// Service is the reconciliation state machine. It creates transaction
// records, routes them through the correct completion path based on the
// acquirer's initial verdict, and merges whichever terminal signal arrives
// first. Every status mutation goes through the store's CompareAndUpdate so
// the three completion paths can race safely.
type Service struct {
	store        persistence.PaymentStore
	gateway      gatewayport.AcquirerGateway
	product      gatewayport.Product
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new reconciliation service
func NewService(
	store persistence.PaymentStore,
	gateway gatewayport.AcquirerGateway,
	product gatewayport.Product,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	logger.Info("Payment reconciliation service initialized", map[string]any{
		"product": product.Name,
	})

	return &Service{
		store:        store,
		gateway:      gateway,
		product:      product,
		timeProvider: timeProvider,
		logger:       logger,
	}
}
