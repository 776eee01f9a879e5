package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campaignforge/minicrm-backend/internal/errors"
	"github.com/campaignforge/minicrm-backend/internal/model"
	"github.com/campaignforge/minicrm-backend/internal/queue"
	"github.com/campaignforge/minicrm-backend/internal/service"
)

func newCampaignService(customers []model.Customer) (*service.CampaignService, *fakeCampaignRepo, *fakeLogRepo, *fakeQueue) {
	campaignRepo := &fakeCampaignRepo{}
	logRepo := newFakeLogRepo()
	q := &fakeQueue{}
	svc := &service.CampaignService{
		CampaignRepo: campaignRepo,
		CustomerRepo: &fakeCustomerRepo{customers: customers},
		LogRepo:      logRepo,
		Queue:        q,
	}
	return svc, campaignRepo, logRepo, q
}

func TestPreviewAudience(t *testing.T) {
	svc, _, _, _ := newCampaignService([]model.Customer{
		{ID: 1, Age: 25},
		{ID: 2, Age: 35},
		{ID: 3, Age: 40},
	})

	size, err := svc.PreviewAudience([]model.Rule{
		{Field: "age", Operator: model.OpGreaterThan, Value: float64(30)},
	}, model.ConjunctionAnd)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
}

func TestPreviewAudienceEmptyRules(t *testing.T) {
	svc, _, _, _ := newCampaignService(nil)
	_, err := svc.PreviewAudience(nil, model.ConjunctionAnd)
	assert.ErrorIs(t, err, appErrors.ErrEmptyRuleSet)
}

func TestCreateCampaignSnapshotsAudienceSize(t *testing.T) {
	svc, _, _, q := newCampaignService([]model.Customer{
		{ID: 1, City: "Pune", TotalSpend: 100},
		{ID: 2, City: "Delhi", TotalSpend: 5000},
		{ID: 3, City: "Mumbai", TotalSpend: 50},
	})

	campaign, err := svc.CreateCampaign(service.CreateCampaignInput{
		Name: "Big spenders or Pune",
		Rules: []model.Rule{
			{Field: "city", Operator: model.OpEquals, Value: "Pune"},
			{Field: "spend", Operator: model.OpGreaterThan, Value: float64(1000)},
		},
		Conjunction: model.ConjunctionOr,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, campaign.AudienceSize)
	assert.NotZero(t, campaign.ID)

	// Creation hands off exactly one dispatch job; it never performs sends.
	assert.Equal(t, []int{campaign.ID}, q.jobs(queue.TopicDispatch))
	assert.Empty(t, q.jobs(queue.TopicSends))
}

func TestCreateCampaignScheduledDefersDispatch(t *testing.T) {
	svc, _, _, q := newCampaignService([]model.Customer{{ID: 1, Age: 40}})

	future := time.Now().Add(time.Hour)
	campaign, err := svc.CreateCampaign(service.CreateCampaignInput{
		Rules:       []model.Rule{{Field: "age", Operator: model.OpGreaterThan, Value: float64(30)}},
		Conjunction: model.ConjunctionAnd,
		ScheduledAt: &future,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, campaign.AudienceSize)
	assert.Empty(t, q.jobs(queue.TopicDispatch), "scheduled campaign must not dispatch at creation")
}

func TestCreateCampaignEmptyRules(t *testing.T) {
	svc, campaignRepo, _, _ := newCampaignService(nil)
	_, err := svc.CreateCampaign(service.CreateCampaignInput{Conjunction: model.ConjunctionAnd})
	assert.ErrorIs(t, err, appErrors.ErrEmptyRuleSet)
	assert.Empty(t, campaignRepo.campaigns)
}

func TestListWithStatsExcludesPending(t *testing.T) {
	svc, campaignRepo, logRepo, _ := newCampaignService(nil)

	c := &model.Campaign{
		Rules:        model.RuleList{{Field: "age", Operator: model.OpGreaterThan, Value: float64(0)}},
		Conjunction:  model.ConjunctionAnd,
		AudienceSize: 5,
	}
	require.NoError(t, campaignRepo.Create(c))

	// 5 entries: 2 SENT, 1 FAILED, 2 still PENDING
	for customerID := 1; customerID <= 5; customerID++ {
		_, err := logRepo.CreatePending(c.ID, customerID, "hi")
		require.NoError(t, err)
	}
	for _, customerID := range []int{1, 2} {
		_, err := logRepo.MarkOutcome(c.ID, customerID, model.StatusSent, "vm")
		require.NoError(t, err)
	}
	_, err := logRepo.MarkOutcome(c.ID, 3, model.StatusFailed, "vm")
	require.NoError(t, err)

	list, err := svc.ListWithStats()
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.Equal(t, 2, list[0].Stats.Sent)
	assert.Equal(t, 1, list[0].Stats.Failed)
}

func TestListWithStatsNewestFirstAndEmpty(t *testing.T) {
	svc, campaignRepo, _, _ := newCampaignService(nil)

	list, err := svc.ListWithStats()
	require.NoError(t, err)
	assert.Empty(t, list, "zero campaigns is an empty list, not an error")

	for i := 0; i < 3; i++ {
		require.NoError(t, campaignRepo.Create(&model.Campaign{
			Rules:       model.RuleList{{Field: "age", Operator: model.OpGreaterThan, Value: float64(0)}},
			Conjunction: model.ConjunctionAnd,
		}))
	}

	list, err = svc.ListWithStats()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Greater(t, list[0].ID, list[1].ID)
	assert.Greater(t, list[1].ID, list[2].ID)
}

func TestListPagePagination(t *testing.T) {
	svc, campaignRepo, _, _ := newCampaignService(nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, campaignRepo.Create(&model.Campaign{Conjunction: model.ConjunctionAnd}))
	}

	page1, pagination, err := svc.ListPage(1, 2)
	require.NoError(t, err)
	page2, _, err := svc.ListPage(2, 2)
	require.NoError(t, err)
	page3, _, err := svc.ListPage(3, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, pagination["total_count"])
	assert.Equal(t, 3, pagination["total_pages"])
	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	require.Len(t, page3, 1)
	assert.NotEqual(t, page1[1].ID, page2[0].ID)

	// A page past the end is empty but still reports the real total.
	pastEnd, pagination, err := svc.ListPage(9, 2)
	require.NoError(t, err)
	assert.Empty(t, pastEnd)
	assert.Equal(t, 5, pagination["total_count"])
}
