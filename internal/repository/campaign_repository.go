package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int) ([]*model.Campaign, int, error)
	ListAll() ([]*model.Campaign, error)
	ListDue(now time.Time) ([]*model.Campaign, error)
	MarkDispatched(id int, at time.Time) error
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO campaigns (name, channel, message, rules, conjunction, audience_size, scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Channel, c.Message, c.Rules, c.Conjunction,
		c.AudienceSize, c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
        SELECT id, name, channel, message, rules, conjunction, audience_size, scheduled_at, dispatched_at, created_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Name, &c.Channel, &c.Message, &c.Rules, &c.Conjunction,
		&c.AudienceSize, &c.ScheduledAt, &c.DispatchedAt, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// ListCampaigns returns one page, newest first, plus the total count. The
// count rides the page query as a window column so page and total come from
// one snapshot; a separate COUNT(*) could disagree under concurrent creation.
func (r *CampaignRepository) ListCampaigns(offset, limit int) ([]*model.Campaign, int, error) {
	query := `
        SELECT id, name, channel, message, rules, conjunction, audience_size, scheduled_at, dispatched_at, created_at,
               COUNT(*) OVER ()
        FROM campaigns
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2
    `
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var total int
	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Channel, &c.Message, &c.Rules, &c.Conjunction,
			&c.AudienceSize, &c.ScheduledAt, &c.DispatchedAt, &c.CreatedAt, &total,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// A page past the end returns no rows, and with them no window count.
	if len(campaigns) == 0 {
		if err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaigns`).Scan(&total); err != nil {
			return nil, 0, err
		}
	}
	return campaigns, total, nil
}

// ListAll returns every campaign, newest first.
func (r *CampaignRepository) ListAll() ([]*model.Campaign, error) {
	query := `
        SELECT id, name, channel, message, rules, conjunction, audience_size, scheduled_at, dispatched_at, created_at
        FROM campaigns
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

// ListDue returns scheduled campaigns whose time has passed and which have
// not been dispatched yet.
func (r *CampaignRepository) ListDue(now time.Time) ([]*model.Campaign, error) {
	query := `
        SELECT id, name, channel, message, rules, conjunction, audience_size, scheduled_at, dispatched_at, created_at
        FROM campaigns
        WHERE scheduled_at IS NOT NULL AND scheduled_at <= $1 AND dispatched_at IS NULL
        ORDER BY scheduled_at
    `
	rows, err := r.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCampaigns(rows)
}

func (r *CampaignRepository) MarkDispatched(id int, at time.Time) error {
	_, err := r.DB.Exec(`UPDATE campaigns SET dispatched_at=$1 WHERE id=$2 AND dispatched_at IS NULL`, at, id)
	return err
}

func scanCampaigns(rows *sql.Rows) ([]*model.Campaign, error) {
	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Channel, &c.Message, &c.Rules, &c.Conjunction,
			&c.AudienceSize, &c.ScheduledAt, &c.DispatchedAt, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
