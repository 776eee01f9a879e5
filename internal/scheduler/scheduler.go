// internal/scheduler/scheduler.go
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/repository"
)

// CampaignScheduler sweeps for scheduled campaigns whose time has come and
// hands them to the dispatch queue. Campaigns already dispatched are never
// picked up again (dispatched_at guard in the repository).
type CampaignScheduler struct {
	cronEngine   *cron.Cron
	campaignRepo repository.CampaignRepositoryInterface
	queue        queue.Queue
	spec         string
}

func New(campaignRepo repository.CampaignRepositoryInterface, q queue.Queue, spec string) *CampaignScheduler {
	return &CampaignScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local)),
		campaignRepo: campaignRepo,
		queue:        q,
		spec:         spec,
	}
}

func (s *CampaignScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.Sweep); err != nil {
		return err
	}
	s.cronEngine.Start()
	logger.Log.WithField("spec", s.spec).Info("campaign scheduler started")
	return nil
}

func (s *CampaignScheduler) Stop() {
	s.cronEngine.Stop()
}

// Sweep enqueues every due campaign.
func (s *CampaignScheduler) Sweep() {
	due, err := s.campaignRepo.ListDue(time.Now())
	if err != nil {
		logger.Log.WithError(err).Error("scheduler sweep failed")
		return
	}
	for _, c := range due {
		logger.Log.WithField("campaign_id", c.ID).Info("dispatching scheduled campaign")
		if err := s.queue.Publish(queue.TopicDispatch, c.ID); err != nil {
			logger.Log.WithError(err).WithField("campaign_id", c.ID).
				Error("failed to enqueue scheduled campaign")
		}
	}
}
