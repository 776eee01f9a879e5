// internal/service/dispatcher.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/campaignforge/minicrm-backend/internal/gateway"
	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/repository"
	"github.com/campaignforge/minicrm-backend/internal/rules"
)

// DefaultMessage is used when a campaign carries no message text.
const DefaultMessage = "Hi {first_name}, here's 10% off on your next order!"

// Dispatcher fans a campaign out to its audience: one PENDING log entry and
// one vendor send per customer. It is the sole creator of log entries; the
// receipt path owns the terminal transitions.
type Dispatcher struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	LogRepo      repository.CommunicationLogRepositoryInterface
	Queue        queue.Queue
	Gateway      gateway.Gateway
}

// Register subscribes the dispatcher to its two topics on the given queue.
func (d *Dispatcher) Register(q queue.Queue) error {
	if err := q.Subscribe(queue.TopicDispatch, d.DispatchByID); err != nil {
		return err
	}
	return q.Subscribe(queue.TopicSends, d.SendByEntryID)
}

// DispatchByID loads the campaign, re-resolves the audience members from the
// stored rule set, and enqueues one send per customer. The stored
// audience_size is the creation-time snapshot and is left untouched even if
// the population drifted in between.
func (d *Dispatcher) DispatchByID(campaignID int) error {
	campaign, err := d.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}

	expr, err := rules.FromRuleSet(campaign.Rules, campaign.Conjunction)
	if err != nil {
		return err
	}
	engine := rules.NewEngine(d.CustomerRepo)
	audience, err := engine.ResolveAudience(expr)
	if err != nil {
		return err
	}

	if err := d.CampaignRepo.MarkDispatched(campaign.ID, time.Now()); err != nil {
		logger.Log.WithError(err).WithField("campaign_id", campaign.ID).
			Warn("failed to mark campaign dispatched")
	}

	log := logger.Log.WithField("campaign_id", campaign.ID)
	log.WithField("audience_size", len(audience)).Info("dispatching campaign")

	for i := range audience {
		customer := &audience[i]

		// The PENDING entry exists before the vendor is ever invoked, even
		// if the accept then fails synchronously.
		message := RenderMessage(campaign.Message, customer)
		entry, err := d.LogRepo.CreatePending(campaign.ID, customer.ID, message)
		if err != nil {
			log.WithError(err).WithField("customer_id", customer.ID).
				Warn("failed to create log entry, delivery abandoned")
			continue
		}

		if err := d.Queue.Publish(queue.TopicSends, entry.ID); err != nil {
			log.WithError(err).WithField("customer_id", customer.ID).
				Warn("failed to enqueue send, entry stays PENDING")
		}
	}
	return nil
}

// SendByEntryID performs the vendor send for one log entry. A refused accept
// leaves the entry PENDING with no retry; only a receipt moves it on.
func (d *Dispatcher) SendByEntryID(entryID int) error {
	entry, err := d.LogRepo.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("log entry %d not found", entryID)
	}
	if entry.Status != model.StatusPending {
		// Already reconciled; nothing to send.
		return nil
	}

	customer, err := d.CustomerRepo.GetByID(entry.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return fmt.Errorf("customer %d not found for log entry %d", entry.CustomerID, entryID)
	}

	acc, err := d.Gateway.Send(gateway.Delivery{
		CampaignID: entry.CampaignID,
		CustomerID: entry.CustomerID,
		Recipient:  recipient(customer),
		Message:    entry.Message,
	})
	if err != nil {
		return err
	}
	if !acc.Accepted {
		logger.Log.WithField("campaign_id", entry.CampaignID).
			WithField("customer_id", entry.CustomerID).
			Warn("vendor refused send, entry stays PENDING")
	}
	return nil
}

func recipient(c *model.Customer) string {
	if c.Phone != "" {
		return c.Phone
	}
	return c.Email
}

// RenderMessage personalizes the campaign message for one customer.
func RenderMessage(template string, c *model.Customer) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultMessage
	}
	placeholders := map[string]string{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"city":       c.City,
		"email":      c.Email,
	}
	message := template
	for key, value := range placeholders {
		if value == "" {
			value = "N/A"
		}
		message = strings.ReplaceAll(message, "{"+key+"}", value)
	}
	return message
}
