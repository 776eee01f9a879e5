// internal/service/receipt_service.go
package service

import (
	"fmt"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/repository"
)

// ReceiptService ingests vendor delivery receipts. It is the sole writer of
// terminal statuses on the communication log.
type ReceiptService struct {
	LogRepo repository.CommunicationLogRepositoryInterface
}

// Apply records the outcome for one (campaign, customer) delivery.
// Idempotent: the first receipt wins and a replay for an already-terminal
// entry is a no-op. A receipt for an unknown pair is an anomaly; it never
// creates a phantom entry.
func (s *ReceiptService) Apply(campaignID, customerID int, outcome model.DeliveryStatus, vendorMessageID string) error {
	if outcome != model.StatusSent && outcome != model.StatusFailed {
		return fmt.Errorf("invalid receipt status %q", outcome)
	}

	updated, err := s.LogRepo.MarkOutcome(campaignID, customerID, outcome, vendorMessageID)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	entry, err := s.LogRepo.Get(campaignID, customerID)
	if err != nil {
		return err
	}
	if entry == nil {
		return appErrors.NewLogEntryNotFound(campaignID, customerID)
	}

	// Duplicate or out-of-order receipt for an entry already reconciled.
	logger.Log.WithField("campaign_id", campaignID).
		WithField("customer_id", customerID).
		WithField("status", entry.Status).
		Debug("receipt replay ignored")
	return nil
}
