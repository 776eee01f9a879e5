// internal/gateway/simulator.go
package gateway

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campaignforge/minicrm-backend/internal/logger"
	"github.com/campaignforge/minicrm-backend/internal/model"
)

// Simulator models an unreliable external channel: it accepts a send
// immediately and reports the real outcome later through the receipt sink,
// roughly 90% delivered, after a randomized delay.
type Simulator struct {
	Sink ReceiptSink

	// DeliveredRate is the probability a receipt reports SENT.
	DeliveredRate float64
	// RefusalRate is the probability the synchronous accept is refused.
	RefusalRate float64
	// MinDelay..MaxDelay bounds the callback delay. MinDelay stays above
	// zero so a receipt cannot outrun the PENDING insert in-process.
	MinDelay time.Duration
	MaxDelay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	wg  sync.WaitGroup
}

func NewSimulator(sink ReceiptSink, minDelay, maxDelay time.Duration) *Simulator {
	if minDelay <= 0 {
		minDelay = 50 * time.Millisecond
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Simulator{
		Sink:          sink,
		DeliveredRate: 0.9,
		MinDelay:      minDelay,
		MaxDelay:      maxDelay,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Send accepts the delivery and schedules its asynchronous outcome. The
// return value says nothing about eventual delivery.
func (s *Simulator) Send(d Delivery) (Acceptance, error) {
	if s.roll() < s.RefusalRate {
		return Acceptance{Accepted: false}, nil
	}

	acc := Acceptance{
		Accepted:        true,
		VendorMessageID: uuid.NewString(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		time.Sleep(s.delay())

		status := model.StatusSent
		if s.roll() >= s.DeliveredRate {
			status = model.StatusFailed
		}

		receipt := Receipt{
			CampaignID:      d.CampaignID,
			CustomerID:      d.CustomerID,
			Status:          status,
			VendorMessageID: acc.VendorMessageID,
		}
		if err := s.Sink.Deliver(receipt); err != nil {
			logger.Log.WithError(err).
				WithField("campaign_id", d.CampaignID).
				WithField("customer_id", d.CustomerID).
				Error("failed to deliver receipt")
		}
	}()

	return acc, nil
}

// Wait blocks until every scheduled receipt has been delivered.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Simulator) delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	spread := s.MaxDelay - s.MinDelay
	if spread <= 0 {
		return s.MinDelay
	}
	return s.MinDelay + time.Duration(s.rng.Int63n(int64(spread)))
}

var _ Gateway = (*Simulator)(nil)
