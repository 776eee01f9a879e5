package queue

import (
	"fmt"
	"sync"

	"github.com/campaignforge/minicrm-backend/internal/logger"
)

// Topic names shared by publishers and consumers.
const (
	TopicDispatch = "campaign_dispatch" // payload: campaign ID
	TopicSends    = "campaign_sends"    // payload: communication log entry ID
)

// Queue hands jobs (record IDs) from producers to subscribed workers.
type Queue interface {
	Publish(topic string, id int) error
	Subscribe(topic string, handler func(id int) error) error
}

// InMemoryQueue is a bounded in-process queue. Each topic gets its own
// channel consumed by a fixed pool of workers, so fan-out is an explicit
// task handoff rather than an unstructured detached goroutine: Publish
// blocks once the buffer is full, which is the backpressure path for very
// large audiences.
type InMemoryQueue struct {
	mu       sync.RWMutex
	capacity int
	workers  int
	topics   map[string]chan int
	closed   bool
	wg       sync.WaitGroup
}

func NewInMemoryQueue(capacity, workers int) *InMemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &InMemoryQueue{
		capacity: capacity,
		workers:  workers,
		topics:   make(map[string]chan int),
	}
}

// Publish enqueues a job. Returns an error if nothing has subscribed to the
// topic or the queue is closed; blocks when the topic buffer is full. The
// read lock is held across the send so Close cannot close the channel under
// an in-flight publish.
func (q *InMemoryQueue) Publish(topic string, id int) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	ch, ok := q.topics[topic]
	if !ok {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}
	ch <- id
	return nil
}

// Subscribe registers the handler for a topic and starts its worker pool.
// One handler per topic; jobs on the same topic run concurrently across
// workers but a single slow job never blocks the others.
func (q *InMemoryQueue) Subscribe(topic string, handler func(id int) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if _, ok := q.topics[topic]; ok {
		return fmt.Errorf("topic %s already has a subscriber", topic)
	}

	ch := make(chan int, q.capacity)
	q.topics[topic] = ch

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for id := range ch {
				if err := handler(id); err != nil {
					// Job failures are isolated: log and move on, no retry.
					logger.Log.WithError(err).WithField("topic", topic).WithField("id", id).
						Warn("job failed")
				}
			}
		}()
	}
	return nil
}

// Close drains the workers. Jobs already queued are still processed; a
// publish racing Close either lands before the channels close or fails with
// a closed-queue error, never a panic.
func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.topics {
		close(ch)
	}
	q.topics = make(map[string]chan int)
	q.mu.Unlock()
	q.wg.Wait()
}
