package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	gatewayport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/gateway"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// IntentStatus is the caller-visible outcome of a create request
type IntentStatus string

// Intent statuses returned to the boundary
const (
	IntentExecuted          IntentStatus = "executed"
	IntentChallengeRequired IntentStatus = "challenge_required"
	IntentPending           IntentStatus = "pending"
)

// CreateIntentRequest carries the buyer, card, and device data for one
// payment attempt. CardNumber and CVC must never be logged.
type CreateIntentRequest struct {
	Email          string
	CardholderName string
	CardNumber     string
	Expires        string
	CVV            string
	Country        string
	ZipCode        string
	RememberCard   string
	Device         gatewayport.DeviceFingerprint
}

// ChallengeDetails are the redirect fields exposed to the caller when a 3DS
// step-up is required. The acquirer callback URL stays server-side.
type ChallengeDetails struct {
	Method       entity.ChallengeMethod
	RequestToken string
	ContextToken string
	RedirectURL  string
}

// IntentResult is the response to a create request
type IntentResult struct {
	PurchaseID string
	Status     IntentStatus
	Challenge  *ChallengeDetails
}

// CreateIntent registers a purchase with the acquirer, submits the card data,
// and records the transaction in the branch the verdict dictates:
// executed completes it synchronously, a 3DS verdict parks it pending with
// the challenge attached, and a pending verdict leaves it to the webhook.
func (s *Service) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResult, error) {
	buyer := gatewayport.Buyer{
		Email:   req.Email,
		Country: req.Country,
		ZipCode: req.ZipCode,
	}

	handle, err := s.gateway.CreatePurchase(ctx, buyer, s.product)
	if err != nil {
		s.logger.Error("Failed to create purchase", logFieldsForError(err))
		return nil, fmt.Errorf("create purchase: %w", err)
	}

	// The record exists before the direct post result is known, so a webhook
	// can still resolve the transaction if the direct post fails below.
	transaction, err := entity.NewPaymentTransaction(handle.PurchaseID, s.timeProvider)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, transaction); err != nil {
		s.logger.Error("Failed to store payment transaction", map[string]any{
			"purchase_id": handle.PurchaseID,
			"error":       err.Error(),
		})
		return nil, err
	}

	card := gatewayport.CardDetails{
		CardholderName: req.CardholderName,
		CardNumber:     req.CardNumber,
		Expires:        req.Expires,
		CVC:            req.CVV,
		RememberCard:   req.RememberCard,
	}

	result, err := s.gateway.SubmitCardDirect(ctx, handle.DirectPostURL, card, req.Device)
	if err != nil {
		// The record stays Pending(no challenge); a later webhook may still
		// resolve it.
		s.logger.Error("Direct card submission failed", map[string]any{
			"purchase_id": handle.PurchaseID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("submit card: %w", err)
	}

	return s.applyVerdict(ctx, handle.PurchaseID, result)
}

// applyVerdict translates the direct post verdict into the matching store
// transition and caller response
func (s *Service) applyVerdict(ctx context.Context, purchaseID string, result *gatewayport.DirectPostResult) (*IntentResult, error) {
	switch result.Verdict {
	case gatewayport.VerdictExecuted:
		s.completeFromVerdict(ctx, purchaseID)
		return &IntentResult{PurchaseID: purchaseID, Status: IntentExecuted}, nil

	case gatewayport.VerdictChallengeRequired:
		if result.Challenge == nil {
			return nil, errs.NewGatewayError("direct_post", 0, errs.ErrUnexpectedVerdict)
		}
		if err := s.attachChallenge(ctx, purchaseID, result.Challenge); err != nil {
			return nil, err
		}
		s.logger.Info("Payment requires 3DS authentication", map[string]any{
			"purchase_id": purchaseID,
		})
		return &IntentResult{
			PurchaseID: purchaseID,
			Status:     IntentChallengeRequired,
			Challenge: &ChallengeDetails{
				Method:       result.Challenge.Method,
				RequestToken: result.Challenge.RequestToken,
				ContextToken: result.Challenge.ContextToken,
				RedirectURL:  result.Challenge.RedirectURL,
			},
		}, nil

	case gatewayport.VerdictPending:
		// Completion will arrive only via webhook; the record already sits
		// in Pending(no challenge).
		s.logger.Info("Payment is pending webhook confirmation", map[string]any{
			"purchase_id": purchaseID,
		})
		return &IntentResult{PurchaseID: purchaseID, Status: IntentPending}, nil

	default:
		return nil, errs.NewGatewayError("direct_post", 0,
			fmt.Errorf("%w: %s", errs.ErrUnexpectedVerdict, result.Verdict))
	}
}

// completeFromVerdict marks the transaction completed after an executed
// verdict. A conflict means an even faster webhook already finalized the
// record, which is absorbed as a no-op.
func (s *Service) completeFromVerdict(ctx context.Context, purchaseID string) {
	_, err := s.store.CompareAndUpdate(ctx, purchaseID, entity.StatusPending, persistence.StatusMutation{
		Status: entity.StatusCompleted,
	})
	if err != nil {
		if errs.IsConflictError(err) {
			s.logger.Warn("Transaction already finalized before verdict was applied", map[string]any{
				"purchase_id": purchaseID,
			})
			return
		}
		s.logger.Error("Failed to complete transaction from verdict", map[string]any{
			"purchase_id": purchaseID,
			"error":       err.Error(),
		})
		return
	}
	s.logger.Info("Payment executed successfully", map[string]any{
		"purchase_id": purchaseID,
	})
}

// attachChallenge stores the 3DS challenge on the still-pending record
func (s *Service) attachChallenge(ctx context.Context, purchaseID string, challenge *entity.Challenge) error {
	_, err := s.store.CompareAndUpdate(ctx, purchaseID, entity.StatusPending, persistence.StatusMutation{
		Status:    entity.StatusPending,
		Challenge: challenge,
	})
	if err != nil {
		if errs.IsConflictError(err) {
			// A webhook finalized the record between the direct post and
			// this update; the challenge is moot.
			s.logger.Warn("Transaction finalized before challenge could be attached", map[string]any{
				"purchase_id": purchaseID,
			})
			return nil
		}
		return err
	}
	return nil
}

// logFieldsForError extracts structured fields from domain errors that carry
// them, falling back to a plain error field
func logFieldsForError(err error) map[string]any {
	var f interface{ LogFields() map[string]any }
	if errors.As(err, &f) {
		return f.LogFields()
	}
	return map[string]any{"error": err.Error()}
}
