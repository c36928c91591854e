package payment

import (
	"context"
	"fmt"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// ApplyChallengeReturn handles the browser redirect back from the bank's
// access-control server. It forwards the challenge response to the acquirer
// and optimistically marks the transaction completed; the webhook remains the
// authority for failed or cancelled outcomes.
func (s *Service) ApplyChallengeReturn(ctx context.Context, contextToken, responseToken string) error {
	transaction, err := s.store.GetByChallenge(ctx, contextToken, responseToken)
	if err != nil {
		// Stale or forged callback; nothing to reconcile.
		s.logger.Warn("Challenge return did not match any pending transaction", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if transaction.Status != entity.StatusPending || !transaction.HasChallenge() {
		// Already reconciled by a webhook or a prior return; idempotent no-op.
		s.logger.Info("Challenge return for already-reconciled transaction", map[string]any{
			"purchase_id": transaction.PurchaseID,
			"status":      string(transaction.Status),
		})
		return nil
	}

	err = s.gateway.SubmitChallengeResponse(ctx, transaction.Challenge.CallbackURL, contextToken, responseToken)
	if err != nil {
		// The record stays Pending(challenge) so the redirect can be retried.
		s.logger.Error("Failed to authorize 3DS payment", map[string]any{
			"purchase_id": transaction.PurchaseID,
			"error":       err.Error(),
		})
		return fmt.Errorf("submit challenge response: %w", err)
	}

	_, err = s.store.CompareAndUpdate(ctx, transaction.PurchaseID, entity.StatusPending, persistence.StatusMutation{
		Status: entity.StatusCompleted,
	})
	if err != nil {
		if errs.IsConflictError(err) {
			// A webhook finalized the record while the callback was in
			// flight; the webhook outcome stands.
			s.logger.Warn("Challenge return lost the race to a webhook", logFieldsForError(err))
			return nil
		}
		s.logger.Error("Failed to complete transaction after challenge", map[string]any{
			"purchase_id": transaction.PurchaseID,
			"error":       err.Error(),
		})
		return err
	}

	s.logger.Info("3DS challenge reconciled", map[string]any{
		"purchase_id": transaction.PurchaseID,
	})
	return nil
}
