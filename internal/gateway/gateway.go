// internal/gateway/gateway.go
package gateway

import (
	"github.com/campaignforge/minicrm-backend/internal/model"
)

// Delivery is one send request for one customer.
type Delivery struct {
	CampaignID int
	CustomerID int
	Recipient  string
	Message    string
}

// Acceptance is the vendor's synchronous answer. It is provisional: only the
// later receipt is authoritative for final status.
type Acceptance struct {
	Accepted        bool
	VendorMessageID string
}

// Gateway is the outbound message channel. The simulator and any real
// SMS/email/push vendor implement the same two-sided contract: a synchronous
// send plus an asynchronous receipt into a ReceiptSink.
type Gateway interface {
	Send(d Delivery) (Acceptance, error)
}

// Receipt is the vendor's delivery-status callback payload.
type Receipt struct {
	CampaignID      int                  `json:"campaign_id"`
	CustomerID      int                  `json:"customer_id"`
	Status          model.DeliveryStatus `json:"status"`
	VendorMessageID string               `json:"vendor_message_id,omitempty"`
}

// ReceiptSink ingests receipts. Implementations must tolerate replays.
type ReceiptSink interface {
	Deliver(r Receipt) error
}

// SinkFunc adapts a function to a ReceiptSink.
type SinkFunc func(r Receipt) error

func (f SinkFunc) Deliver(r Receipt) error { return f(r) }
