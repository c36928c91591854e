package repository

import (
	"context"
	"sync"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// challengeKey is the secondary index key for records with an outstanding 3DS
// challenge
type challengeKey struct {
	contextToken string
	requestToken string
}

// MemoryPaymentStore implements PaymentStore with an in-process indexed map.
// A single mutex guards both indices so CompareAndUpdate observes and mutates
// status, challenge, and the secondary index as one atomic step.
type MemoryPaymentStore struct {
	mu           sync.RWMutex
	byPurchaseID map[string]*entity.PaymentTransaction
	byChallenge  map[challengeKey]string
	timeProvider coreport.TimeProvider
}

// NewMemoryPaymentStore creates a new in-memory payment store
func NewMemoryPaymentStore(timeProvider coreport.TimeProvider) *MemoryPaymentStore {
	return &MemoryPaymentStore{
		byPurchaseID: make(map[string]*entity.PaymentTransaction),
		byChallenge:  make(map[challengeKey]string),
		timeProvider: timeProvider,
	}
}

// Create inserts a new transaction record
func (s *MemoryPaymentStore) Create(_ context.Context, transaction *entity.PaymentTransaction) error {
	if transaction.PurchaseID == "" {
		return errs.ErrInvalidPurchaseID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPurchaseID[transaction.PurchaseID]; exists {
		return errs.ErrDuplicatePurchase
	}

	stored := transaction.Clone()
	s.byPurchaseID[stored.PurchaseID] = stored
	if stored.Challenge != nil {
		s.byChallenge[keyFor(stored.Challenge)] = stored.PurchaseID
	}
	return nil
}

// GetByPurchaseID retrieves a transaction by its purchase ID
func (s *MemoryPaymentStore) GetByPurchaseID(_ context.Context, purchaseID string) (*entity.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.byPurchaseID[purchaseID]
	if !exists {
		return nil, errs.ErrPaymentNotFound
	}
	return stored.Clone(), nil
}

// GetByChallenge retrieves the transaction whose outstanding challenge
// matches the token pair. Cleared challenges leave the index, so terminal
// records never match.
func (s *MemoryPaymentStore) GetByChallenge(_ context.Context, contextToken, requestToken string) (*entity.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchaseID, exists := s.byChallenge[challengeKey{contextToken: contextToken, requestToken: requestToken}]
	if !exists {
		return nil, errs.ErrPaymentNotFound
	}

	stored, exists := s.byPurchaseID[purchaseID]
	if !exists {
		return nil, errs.ErrPaymentNotFound
	}
	return stored.Clone(), nil
}

// CompareAndUpdate atomically verifies the stored status before applying the
// mutation. Exactly one of two racing callers wins; the loser observes
// ErrStatusConflict.
func (s *MemoryPaymentStore) CompareAndUpdate(_ context.Context, purchaseID string, expectedStatus entity.PaymentStatus, mutation persistence.StatusMutation) (*entity.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byPurchaseID[purchaseID]
	if !exists {
		return nil, errs.ErrPaymentNotFound
	}
	if stored.Status != expectedStatus {
		return nil, errs.NewConflictError(purchaseID, string(expectedStatus), string(stored.Status))
	}

	// Keep the secondary index in step with the challenge field.
	if stored.Challenge != nil {
		delete(s.byChallenge, keyFor(stored.Challenge))
	}

	stored.Status = mutation.Status
	stored.UpdatedAt = s.timeProvider.Now()
	if mutation.Challenge != nil {
		challenge := *mutation.Challenge
		stored.Challenge = &challenge
		s.byChallenge[keyFor(stored.Challenge)] = purchaseID
	} else {
		stored.Challenge = nil
	}

	return stored.Clone(), nil
}

func keyFor(challenge *entity.Challenge) challengeKey {
	return challengeKey{
		contextToken: challenge.ContextToken,
		requestToken: challenge.RequestToken,
	}
}
