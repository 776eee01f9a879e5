// internal/model/communication_log.go
package model

import "time"

// DeliveryStatus is the state of one delivery attempt.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "PENDING"
	StatusSent    DeliveryStatus = "SENT"
	StatusFailed  DeliveryStatus = "FAILED"
)

// CommunicationLogEntry records one delivery attempt per (campaign, customer) pair.
// Created PENDING by the dispatcher, moved to SENT or FAILED exactly once by a receipt.
type CommunicationLogEntry struct {
	ID              int            `db:"id" json:"id"`
	CampaignID      int            `db:"campaign_id" json:"campaign_id"`
	CustomerID      int            `db:"customer_id" json:"customer_id"`
	Status          DeliveryStatus `db:"status" json:"status"`
	Message         string         `db:"message" json:"message"`
	VendorMessageID string         `db:"vendor_message_id" json:"vendor_message_id,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
