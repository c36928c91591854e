package payment

import (
	"context"

	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/entity"
	errs "github.com/amirhossein-jamali/payment-reconciler/internal/domain/error"
	"github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/persistence"
)

// Webhook event types sent by the acquirer
const (
	EventPurchaseCreated        = "purchase.created"
	EventPurchasePaid           = "purchase.paid"
	EventPurchaseCancelled      = "purchase.cancelled"
	EventPurchasePaymentFailure = "purchase.payment_failure"
)

// ApplyWebhook merges an asynchronous acquirer notification into the stored
// transaction. Delivery may be retried by the acquirer, so the operation is
// idempotent: an event targeting an already-terminal record is accepted and
// discarded.
func (s *Service) ApplyWebhook(ctx context.Context, purchaseID, eventType string) error {
	if _, err := s.store.GetByPurchaseID(ctx, purchaseID); err != nil {
		s.logger.Warn("Webhook for unknown purchase", map[string]any{
			"purchase_id": purchaseID,
			"event_type":  eventType,
		})
		return err
	}

	var status entity.PaymentStatus
	switch eventType {
	case EventPurchaseCreated:
		// Informational only; the record already exists.
		s.logger.Info("Purchase created event received", map[string]any{
			"purchase_id": purchaseID,
		})
		return nil
	case EventPurchasePaid:
		status = entity.StatusCompleted
	case EventPurchaseCancelled:
		status = entity.StatusCancelled
	case EventPurchasePaymentFailure:
		status = entity.StatusFailed
	default:
		unknownErr := errs.NewUnknownEventError(eventType, purchaseID)
		s.logger.Error("Unknown webhook event type", logFieldsForError(unknownErr))
		return unknownErr
	}

	_, err := s.store.CompareAndUpdate(ctx, purchaseID, entity.StatusPending, persistence.StatusMutation{
		Status: status,
	})
	if err != nil {
		if errs.IsConflictError(err) {
			// Duplicate delivery or a completion path that already won the
			// race; accepted and discarded.
			fields := logFieldsForError(err)
			fields["event_type"] = eventType
			s.logger.Warn("Webhook discarded for already-terminal transaction", fields)
			return nil
		}
		s.logger.Error("Failed to apply webhook event", map[string]any{
			"purchase_id": purchaseID,
			"event_type":  eventType,
			"error":       err.Error(),
		})
		return err
	}

	s.logger.Info("Webhook event applied", map[string]any{
		"purchase_id": purchaseID,
		"event_type":  eventType,
		"status":      string(status),
	})
	return nil
}
