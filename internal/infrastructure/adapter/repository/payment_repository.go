package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// PaymentRepository implements PaymentStore on PostgreSQL through GORM. The
// compare-and-update contract maps onto a conditional UPDATE: the status
// check and the write are one statement, so the database resolves races and
// exactly one concurrent caller wins.
type PaymentRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPaymentRepository creates a new PaymentRepository instance
func NewPaymentRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a payment transaction entity to a database model
func (r *PaymentRepository) entityToModel(transaction *entity.PaymentTransaction) model.PaymentTransaction {
	m := model.PaymentTransaction{
		PurchaseID: transaction.PurchaseID,
		Status:     string(transaction.Status),
		CreatedAt:  transaction.CreatedAt,
		UpdatedAt:  transaction.UpdatedAt,
	}
	if transaction.Challenge != nil {
		method := string(transaction.Challenge.Method)
		requestToken := transaction.Challenge.RequestToken
		contextToken := transaction.Challenge.ContextToken
		redirectURL := transaction.Challenge.RedirectURL
		callbackURL := transaction.Challenge.CallbackURL
		m.ChallengeMethod = &method
		m.ChallengeRequestToken = &requestToken
		m.ChallengeContextToken = &contextToken
		m.ChallengeRedirectURL = &redirectURL
		m.ChallengeCallbackURL = &callbackURL
	}
	return m
}

// modelToEntity converts a database model to a payment transaction entity
func (r *PaymentRepository) modelToEntity(m *model.PaymentTransaction) *entity.PaymentTransaction {
	transaction := &entity.PaymentTransaction{
		PurchaseID: m.PurchaseID,
		Status:     entity.PaymentStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.ChallengeContextToken != nil && m.ChallengeRequestToken != nil {
		challenge := &entity.Challenge{
			RequestToken: *m.ChallengeRequestToken,
			ContextToken: *m.ChallengeContextToken,
		}
		if m.ChallengeMethod != nil {
			challenge.Method = entity.ChallengeMethod(*m.ChallengeMethod)
		}
		if m.ChallengeRedirectURL != nil {
			challenge.RedirectURL = *m.ChallengeRedirectURL
		}
		if m.ChallengeCallbackURL != nil {
			challenge.CallbackURL = *m.ChallengeCallbackURL
		}
		transaction.Challenge = challenge
	}
	return transaction
}

// Create saves a new payment transaction
func (r *PaymentRepository) Create(ctx context.Context, transaction *entity.PaymentTransaction) error {
	r.logger.Debug("Creating payment transaction", map[string]any{
		"purchase_id": transaction.PurchaseID,
	})

	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate purchase detected", map[string]any{
				"purchase_id": transaction.PurchaseID,
			})
			return errs.ErrDuplicatePurchase
		}

		r.logger.Error("Failed to create payment transaction", map[string]any{
			"purchase_id": transaction.PurchaseID,
			"error":       result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	r.logger.Info("Payment transaction created", map[string]any{
		"purchase_id": transaction.PurchaseID,
		"status":      string(transaction.Status),
	})
	return nil
}

// GetByPurchaseID retrieves a payment transaction by its purchase ID
func (r *PaymentRepository) GetByPurchaseID(ctx context.Context, purchaseID string) (*entity.PaymentTransaction, error) {
	var transactionModel model.PaymentTransaction
	result := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		r.logger.Error("Failed to get payment transaction", map[string]any{
			"purchase_id": purchaseID,
			"error":       result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&transactionModel), nil
}

// GetByChallenge retrieves the pending transaction matching the challenge
// token pair. Terminal transitions null the challenge columns, so cleared
// challenges never match.
func (r *PaymentRepository) GetByChallenge(ctx context.Context, contextToken, requestToken string) (*entity.PaymentTransaction, error) {
	var transactionModel model.PaymentTransaction
	result := r.db.WithContext(ctx).
		Where("challenge_context_token = ? AND challenge_request_token = ?", contextToken, requestToken).
		First(&transactionModel)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPaymentNotFound
		}
		r.logger.Error("Failed to get payment transaction by challenge", map[string]any{
			"error": result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&transactionModel), nil
}

// CompareAndUpdate applies the mutation only if the stored status still
// equals expectedStatus. RowsAffected discriminates a lost race from a
// missing record.
func (r *PaymentRepository) CompareAndUpdate(ctx context.Context, purchaseID string, expectedStatus entity.PaymentStatus, mutation persistence.StatusMutation) (*entity.PaymentTransaction, error) {
	updates := map[string]interface{}{
		"status":     string(mutation.Status),
		"updated_at": r.timeProvider.Now(),
	}
	if mutation.Challenge != nil {
		updates["challenge_method"] = string(mutation.Challenge.Method)
		updates["challenge_request_token"] = mutation.Challenge.RequestToken
		updates["challenge_context_token"] = mutation.Challenge.ContextToken
		updates["challenge_redirect_url"] = mutation.Challenge.RedirectURL
		updates["challenge_callback_url"] = mutation.Challenge.CallbackURL
	} else {
		updates["challenge_method"] = nil
		updates["challenge_request_token"] = nil
		updates["challenge_context_token"] = nil
		updates["challenge_redirect_url"] = nil
		updates["challenge_callback_url"] = nil
	}

	result := r.db.WithContext(ctx).Model(&model.PaymentTransaction{}).
		Where("purchase_id = ? AND status = ?", purchaseID, string(expectedStatus)).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to update payment transaction", map[string]any{
			"purchase_id": purchaseID,
			"error":       result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		// Either the record is gone or another caller won the race; a
		// second read tells the two apart.
		current, err := r.GetByPurchaseID(ctx, purchaseID)
		if err != nil {
			return nil, err
		}
		return nil, errs.NewConflictError(purchaseID, string(expectedStatus), string(current.Status))
	}

	return r.GetByPurchaseID(ctx, purchaseID)
}
