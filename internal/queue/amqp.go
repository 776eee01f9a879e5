package queue

import (
	"encoding/json"

	"github.com/streadway/amqp"

	"github.com/campaignforge/minicrm-backend/internal/logger"
)

// job is the wire shape of one queued record ID.
type job struct {
	ID int `json:"id"`
}

// AMQPQueue is the RabbitMQ-backed Queue. Used when deliveries are consumed
// by the separate worker binary instead of the in-process pool.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, id int) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}
	body, err := json.Marshal(job{ID: id})
	if err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Subscribe consumes the topic until the channel closes. Malformed bodies
// and handler errors are acked away; delivery failures are terminal for the
// affected job only.
func (q *AMQPQueue) Subscribe(topic string, handler func(id int) error) error {
	queue, err := q.declare(topic)
	if err != nil {
		return err
	}
	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck off: ack only after the handler ran
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			var j job
			if err := json.Unmarshal(d.Body, &j); err != nil {
				logger.Log.WithError(err).Warn("invalid job body, dropping")
				d.Ack(false)
				continue
			}
			if err := handler(j.ID); err != nil {
				logger.Log.WithError(err).WithField("id", j.ID).Warn("job failed")
			}
			d.Ack(false)
		}
	}()
	return nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
var _ Queue = (*InMemoryQueue)(nil)
