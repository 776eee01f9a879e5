// internal/handler/receipt_handler.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

// ReceiptHandler is the inbound delivery-status webhook called by the vendor.
type ReceiptHandler struct {
	ReceiptService *service.ReceiptService
}

// Ingest applies one delivery receipt. The webhook acknowledges with 200
// even when the receipt matched nothing: a vendor retry-storm on error
// statuses would only replay the same anomaly.
func (h *ReceiptHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID      int                  `json:"campaign_id"`
		CustomerID      int                  `json:"customer_id"`
		Status          model.DeliveryStatus `json:"status"`
		VendorMessageID string               `json:"vendor_message_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.ReceiptService.Apply(body.CampaignID, body.CustomerID, body.Status, body.VendorMessageID)
	if err != nil {
		var notFound *appErrors.ErrLogEntryNotFound
		switch {
		case errors.As(err, &notFound):
			logger.Log.WithField("campaign_id", body.CampaignID).
				WithField("customer_id", body.CustomerID).
				Warn("receipt for unknown delivery, ignored")
		default:
			logger.Log.WithError(err).Error("failed to apply receipt")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
