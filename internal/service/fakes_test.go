package service_test

import (
	"fmt"
	"sync"
	"time"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/gateway"
	"github.com/campaignforge/minicrm-backend/internal/model"
)

// --- fake campaign repository ---

type fakeCampaignRepo struct {
	mu        sync.Mutex
	campaigns []*model.Campaign
	nextID    int
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	stored := *c
	f.campaigns = append(f.campaigns, &stored)
	return nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.campaigns {
		if c.ID == id {
			copy := *c
			return &copy, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (f *fakeCampaignRepo) ListAll() ([]*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Campaign, 0, len(f.campaigns))
	for i := len(f.campaigns) - 1; i >= 0; i-- { // newest first
		copy := *f.campaigns[i]
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakeCampaignRepo) ListCampaigns(offset, limit int) ([]*model.Campaign, int, error) {
	all, _ := f.ListAll()
	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeCampaignRepo) ListDue(now time.Time) ([]*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := []*model.Campaign{}
	for _, c := range f.campaigns {
		if c.ScheduledAt != nil && !c.ScheduledAt.After(now) && c.DispatchedAt == nil {
			copy := *c
			due = append(due, &copy)
		}
	}
	return due, nil
}

func (f *fakeCampaignRepo) MarkDispatched(id int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.campaigns {
		if c.ID == id && c.DispatchedAt == nil {
			c.DispatchedAt = &at
		}
	}
	return nil
}

// --- fake customer repository ---

type fakeCustomerRepo struct {
	customers []model.Customer
	listErr   error
}

func (f *fakeCustomerRepo) GetByID(id int) (*model.Customer, error) {
	for i := range f.customers {
		if f.customers[i].ID == id {
			c := f.customers[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerRepo) ListAll() ([]model.Customer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.customers, nil
}

func (f *fakeCustomerRepo) Create(c *model.Customer) error {
	c.ID = len(f.customers) + 1
	f.customers = append(f.customers, *c)
	return nil
}

// --- fake communication log repository ---

type logKey struct{ campaignID, customerID int }

type fakeLogRepo struct {
	mu      sync.Mutex
	entries map[logKey]*model.CommunicationLogEntry
	nextID  int

	failForCustomer int // CreatePending fails for this customer ID when set
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{entries: make(map[logKey]*model.CommunicationLogEntry)}
}

func (f *fakeLogRepo) CreatePending(campaignID, customerID int, message string) (*model.CommunicationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failForCustomer != 0 && customerID == f.failForCustomer {
		return nil, fmt.Errorf("insert failed for customer %d", customerID)
	}
	key := logKey{campaignID, customerID}
	if existing, ok := f.entries[key]; ok {
		copy := *existing
		return &copy, nil
	}
	f.nextID++
	entry := &model.CommunicationLogEntry{
		ID:         f.nextID,
		CampaignID: campaignID,
		CustomerID: customerID,
		Status:     model.StatusPending,
		Message:    message,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.entries[key] = entry
	copy := *entry
	return &copy, nil
}

func (f *fakeLogRepo) Get(campaignID, customerID int) (*model.CommunicationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.entries[logKey{campaignID, customerID}]; ok {
		copy := *entry
		return &copy, nil
	}
	return nil, nil
}

func (f *fakeLogRepo) GetByID(id int) (*model.CommunicationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.entries {
		if entry.ID == id {
			copy := *entry
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeLogRepo) MarkOutcome(campaignID, customerID int, status model.DeliveryStatus, vendorMessageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[logKey{campaignID, customerID}]
	if !ok || entry.Status != model.StatusPending {
		return false, nil
	}
	entry.Status = status
	if vendorMessageID != "" {
		entry.VendorMessageID = vendorMessageID
	}
	entry.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeLogRepo) StatsByCampaign(campaignIDs []int) (map[int]model.CampaignStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make(map[int]model.CampaignStats)
	wanted := make(map[int]bool, len(campaignIDs))
	for _, id := range campaignIDs {
		wanted[id] = true
	}
	for _, entry := range f.entries {
		if !wanted[entry.CampaignID] {
			continue
		}
		s := stats[entry.CampaignID]
		switch entry.Status {
		case model.StatusSent:
			s.Sent++
		case model.StatusFailed:
			s.Failed++
		}
		stats[entry.CampaignID] = s
	}
	return stats, nil
}

func (f *fakeLogRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// --- fake queue ---

type publishedJob struct {
	Topic string
	ID    int
}

type fakeQueue struct {
	mu        sync.Mutex
	published []publishedJob
}

func (f *fakeQueue) Publish(topic string, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedJob{Topic: topic, ID: id})
	return nil
}

func (f *fakeQueue) Subscribe(topic string, handler func(id int) error) error {
	return nil
}

func (f *fakeQueue) jobs(topic string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int{}
	for _, j := range f.published {
		if j.Topic == topic {
			out = append(out, j.ID)
		}
	}
	return out
}

// --- fake gateway ---

type fakeGateway struct {
	mu         sync.Mutex
	deliveries []gateway.Delivery
	refuse     bool
	sendErr    error
}

func (f *fakeGateway) Send(d gateway.Delivery) (gateway.Acceptance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return gateway.Acceptance{}, f.sendErr
	}
	if f.refuse {
		return gateway.Acceptance{Accepted: false}, nil
	}
	f.deliveries = append(f.deliveries, d)
	return gateway.Acceptance{Accepted: true, VendorMessageID: "vm-test"}, nil
}
