// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrEmptyRuleSet is returned when a campaign or preview carries no rules.
var ErrEmptyRuleSet = errors.New("rules must be a non-empty list")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrLogEntryNotFound reports a receipt that matched no communication log entry.
type ErrLogEntryNotFound struct {
	CampaignID int
	CustomerID int
}

func (e *ErrLogEntryNotFound) Error() string {
	return fmt.Sprintf("no communication log entry for campaign %d, customer %d", e.CampaignID, e.CustomerID)
}

func NewLogEntryNotFound(campaignID, customerID int) error {
	return &ErrLogEntryNotFound{CampaignID: campaignID, CustomerID: customerID}
}
