package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/campaignforge/minicrm-backend/internal/model"
)

type CommunicationLogRepositoryInterface interface {
	CreatePending(campaignID, customerID int, message string) (*model.CommunicationLogEntry, error)
	Get(campaignID, customerID int) (*model.CommunicationLogEntry, error)
	GetByID(id int) (*model.CommunicationLogEntry, error)
	MarkOutcome(campaignID, customerID int, status model.DeliveryStatus, vendorMessageID string) (bool, error)
	StatsByCampaign(campaignIDs []int) (map[int]model.CampaignStats, error)
}

type CommunicationLogRepository struct {
	DB *sql.DB
}

// CreatePending inserts the PENDING entry for one delivery attempt.
// Idempotent: if an entry for the pair already exists it is returned as-is,
// so a re-dispatch never resets a terminal status.
func (r *CommunicationLogRepository) CreatePending(campaignID, customerID int, message string) (*model.CommunicationLogEntry, error) {
	existing, err := r.Get(campaignID, customerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	query := `
        INSERT INTO communication_log (campaign_id, customer_id, status, message, created_at, updated_at)
        VALUES ($1, $2, 'PENDING', $3, NOW(), NOW())
        RETURNING id, status, created_at, updated_at
    `
	var entry model.CommunicationLogEntry
	err = r.DB.QueryRow(query, campaignID, customerID, message).Scan(
		&entry.ID, &entry.Status, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.CampaignID = campaignID
	entry.CustomerID = customerID
	entry.Message = message
	return &entry, nil
}

func (r *CommunicationLogRepository) Get(campaignID, customerID int) (*model.CommunicationLogEntry, error) {
	query := `
        SELECT id, campaign_id, customer_id, status, message, COALESCE(vendor_message_id, ''), created_at, updated_at
        FROM communication_log
        WHERE campaign_id=$1 AND customer_id=$2
    `
	var entry model.CommunicationLogEntry
	err := r.DB.QueryRow(query, campaignID, customerID).Scan(
		&entry.ID, &entry.CampaignID, &entry.CustomerID, &entry.Status,
		&entry.Message, &entry.VendorMessageID, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *CommunicationLogRepository) GetByID(id int) (*model.CommunicationLogEntry, error) {
	query := `
        SELECT id, campaign_id, customer_id, status, message, COALESCE(vendor_message_id, ''), created_at, updated_at
        FROM communication_log
        WHERE id=$1
    `
	var entry model.CommunicationLogEntry
	err := r.DB.QueryRow(query, id).Scan(
		&entry.ID, &entry.CampaignID, &entry.CustomerID, &entry.Status,
		&entry.Message, &entry.VendorMessageID, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// MarkOutcome moves a PENDING entry to its terminal status. The status guard
// in the WHERE clause makes replayed receipts a no-op: only the first
// application wins. Returns whether a row was updated.
func (r *CommunicationLogRepository) MarkOutcome(campaignID, customerID int, status model.DeliveryStatus, vendorMessageID string) (bool, error) {
	query := `
        UPDATE communication_log
        SET status=$3, vendor_message_id=COALESCE(NULLIF($4, ''), vendor_message_id), updated_at=NOW()
        WHERE campaign_id=$1 AND customer_id=$2 AND status='PENDING'
    `
	res, err := r.DB.Exec(query, campaignID, customerID, string(status), vendorMessageID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StatsByCampaign aggregates sent/failed counts per campaign. PENDING entries
// are counted in neither bucket.
func (r *CommunicationLogRepository) StatsByCampaign(campaignIDs []int) (map[int]model.CampaignStats, error) {
	stats := make(map[int]model.CampaignStats, len(campaignIDs))
	if len(campaignIDs) == 0 {
		return stats, nil
	}

	query := `
        SELECT campaign_id, status, COUNT(*)
        FROM communication_log
        WHERE campaign_id = ANY($1) AND status IN ('SENT', 'FAILED')
        GROUP BY campaign_id, status
    `
	rows, err := r.DB.Query(query, pq.Array(campaignIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var campaignID, count int
		var status string
		if err := rows.Scan(&campaignID, &status, &count); err != nil {
			return nil, err
		}
		s := stats[campaignID]
		switch model.DeliveryStatus(status) {
		case model.StatusSent:
			s.Sent = count
		case model.StatusFailed:
			s.Failed = count
		}
		stats[campaignID] = s
	}
	return stats, rows.Err()
}

var _ CommunicationLogRepositoryInterface = (*CommunicationLogRepository)(nil)
