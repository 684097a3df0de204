package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher enqueues meal-suggestion jobs for the worker.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// MealJobMessage is the wire payload for one queued suggestion job. The
// session and user ids ride along so worker logs can be correlated with
// chat state without a database read.
type MealJobMessage struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	UserID    uint64 `json:"user_id"`
}

// queueSpec is one declaration in the meal-job topology.
type queueSpec struct {
	name string
	args amqp.Table
}

// topology lists the queues backing the job pipeline. The main queue
// dead-letters poisoned messages to the DLQ; the retry queue dead-letters
// expired messages back onto the main queue. Declaration order matters:
// the DLQ and retry queue must exist before the main queue references them.
func topology(queue string) []queueSpec {
	return []queueSpec{
		{name: queue + ".dlq"},
		{name: queue + ".retry", args: amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		}},
		{name: queue, args: MainQueueArgs(queue)},
	}
}

// MainQueueArgs is the main-queue declaration. The consumer declares the
// queue on its own channel and must pass identical arguments or the broker
// rejects the redeclare.
func MainQueueArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue + ".dlq",
	}
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	for _, q := range topology(queue) {
		if _, err := ch.QueueDeclare(q.name, true, false, false, false, q.args); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Publisher) PublishJob(ctx context.Context, msg MealJobMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}
