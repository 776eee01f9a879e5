package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignforge/minicrm-backend/internal/handler"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

type memLogRepo struct {
	mu      sync.Mutex
	entries map[[2]int]*model.CommunicationLogEntry
	nextID  int
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{entries: make(map[[2]int]*model.CommunicationLogEntry)}
}

func (m *memLogRepo) CreatePending(campaignID, customerID int, message string) (*model.CommunicationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int{campaignID, customerID}
	if e, ok := m.entries[key]; ok {
		return e, nil
	}
	m.nextID++
	e := &model.CommunicationLogEntry{
		ID: m.nextID, CampaignID: campaignID, CustomerID: customerID,
		Status: model.StatusPending, Message: message,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.entries[key] = e
	return e, nil
}

func (m *memLogRepo) Get(campaignID, customerID int) (*model.CommunicationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[[2]int{campaignID, customerID}]; ok {
		return e, nil
	}
	return nil, nil
}

func (m *memLogRepo) GetByID(id int) (*model.CommunicationLogEntry, error) { return nil, nil }

func (m *memLogRepo) MarkOutcome(campaignID, customerID int, status model.DeliveryStatus, vendorMessageID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[[2]int{campaignID, customerID}]
	if !ok || e.Status != model.StatusPending {
		return false, nil
	}
	e.Status = status
	e.VendorMessageID = vendorMessageID
	return true, nil
}

func (m *memLogRepo) StatsByCampaign(campaignIDs []int) (map[int]model.CampaignStats, error) {
	return map[int]model.CampaignStats{}, nil
}

func newReceiptHandler() (*handler.ReceiptHandler, *memLogRepo) {
	repo := newMemLogRepo()
	return &handler.ReceiptHandler{
		ReceiptService: &service.ReceiptService{LogRepo: repo},
	}, repo
}

func postReceipt(t *testing.T, h *handler.ReceiptHandler, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/delivery-receipt", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Ingest(w, req)
	return w
}

func TestIngestAppliesReceipt(t *testing.T) {
	h, repo := newReceiptHandler()
	_, err := repo.CreatePending(1, 7, "hi")
	require.NoError(t, err)

	w := postReceipt(t, h, map[string]any{
		"campaign_id": 1, "customer_id": 7, "status": "SENT", "vendor_message_id": "vm-1",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	entry, _ := repo.Get(1, 7)
	assert.Equal(t, model.StatusSent, entry.Status)
	assert.Equal(t, "vm-1", entry.VendorMessageID)
}

// The webhook acknowledges receipts it cannot match: returning an error
// status would only make the vendor replay the same anomaly.
func TestIngestUnknownPairStillAcknowledged(t *testing.T) {
	h, repo := newReceiptHandler()

	w := postReceipt(t, h, map[string]any{
		"campaign_id": 99, "customer_id": 42, "status": "SENT",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var res map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, true, res["ok"])

	// No phantom entry was created.
	entry, _ := repo.Get(99, 42)
	assert.Nil(t, entry)
}

func TestIngestDuplicateReceipt(t *testing.T) {
	h, repo := newReceiptHandler()
	_, err := repo.CreatePending(1, 7, "hi")
	require.NoError(t, err)

	payload := map[string]any{"campaign_id": 1, "customer_id": 7, "status": "FAILED"}
	assert.Equal(t, http.StatusOK, postReceipt(t, h, payload).Code)
	assert.Equal(t, http.StatusOK, postReceipt(t, h, payload).Code)

	entry, _ := repo.Get(1, 7)
	assert.Equal(t, model.StatusFailed, entry.Status)
}

func TestIngestRejectsMalformedBody(t *testing.T) {
	h, _ := newReceiptHandler()
	req := httptest.NewRequest("POST", "/api/delivery-receipt", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	h.Ingest(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
