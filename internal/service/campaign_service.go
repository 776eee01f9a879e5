// internal/service/campaign_service.go
package service

import (
	"time"

	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/repository"
	"github.com/campaignforge/minicrm-backend/internal/rules"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	LogRepo      repository.CommunicationLogRepositoryInterface
	Queue        queue.Queue
}

// CreateCampaignInput is the campaign-creation request.
type CreateCampaignInput struct {
	Name        string
	Channel     string
	Message     string
	Rules       []model.Rule
	Conjunction model.Conjunction
	ScheduledAt *time.Time
}

// PreviewAudience resolves the audience for a rule set against the current
// population and returns its size. Used by the preview surface; a later
// creation with the same rules may legitimately count differently.
func (s *CampaignService) PreviewAudience(ruleList []model.Rule, conj model.Conjunction) (int, error) {
	expr, err := rules.FromRuleSet(ruleList, conj)
	if err != nil {
		return 0, err
	}
	engine := rules.NewEngine(s.CustomerRepo)
	audience, err := engine.ResolveAudience(expr)
	if err != nil {
		return 0, err
	}
	return len(audience), nil
}

// CreateCampaign resolves the audience, persists the campaign with the
// audience size snapshotted at creation, and hands the fan-out to the
// dispatch queue. The caller's response does not wait for any delivery.
func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	expr, err := rules.FromRuleSet(in.Rules, in.Conjunction)
	if err != nil {
		return nil, err
	}

	engine := rules.NewEngine(s.CustomerRepo)
	audience, err := engine.ResolveAudience(expr)
	if err != nil {
		return nil, err
	}

	c := &model.Campaign{
		Name:         in.Name,
		Channel:      in.Channel,
		Message:      in.Message,
		Rules:        in.Rules,
		Conjunction:  in.Conjunction,
		AudienceSize: len(audience),
		ScheduledAt:  in.ScheduledAt,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	if c.ScheduledAt != nil && c.ScheduledAt.After(time.Now()) {
		logger.Log.WithField("campaign_id", c.ID).
			WithField("scheduled_at", c.ScheduledAt).
			Info("campaign scheduled, dispatch deferred")
		return c, nil
	}

	logger.Log.WithField("campaign_id", c.ID).
		WithField("audience_size", c.AudienceSize).
		Info("campaign created, starting delivery")

	if err := s.Queue.Publish(queue.TopicDispatch, c.ID); err != nil {
		// The campaign is persisted; a failed handoff only delays delivery.
		logger.Log.WithError(err).WithField("campaign_id", c.ID).
			Error("failed to enqueue dispatch")
	}
	return c, nil
}

// ListWithStats returns every campaign newest-first, augmented with
// sent/failed counts aggregated from the communication log at read time.
func (s *CampaignService) ListWithStats() ([]model.CampaignWithStats, error) {
	campaigns, err := s.CampaignRepo.ListAll()
	if err != nil {
		return nil, err
	}
	return s.withStats(campaigns)
}

// ListPage returns one page newest-first plus pagination info, each campaign
// with its stats.
func (s *CampaignService) ListPage(page, pageSize int) ([]model.CampaignWithStats, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	withStats, err := s.withStats(campaigns)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
	return withStats, pagination, nil
}

// GetWithStats fetches one campaign with its delivery counts.
func (s *CampaignService) GetWithStats(id int) (*model.CampaignWithStats, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	stats, err := s.LogRepo.StatsByCampaign([]int{c.ID})
	if err != nil {
		return nil, err
	}
	return &model.CampaignWithStats{Campaign: *c, Stats: stats[c.ID]}, nil
}

func (s *CampaignService) withStats(campaigns []*model.Campaign) ([]model.CampaignWithStats, error) {
	ids := make([]int, len(campaigns))
	for i, c := range campaigns {
		ids[i] = c.ID
	}
	stats, err := s.LogRepo.StatsByCampaign(ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.CampaignWithStats, len(campaigns))
	for i, c := range campaigns {
		out[i] = model.CampaignWithStats{Campaign: *c, Stats: stats[c.ID]}
	}
	return out, nil
}
