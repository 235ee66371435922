package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TaskRecord is the asynq task type carrying an audit event.
const TaskRecord = "audit:record"

// Enqueuer is the subset of *asynq.Client used by Queue.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Observer counts audit outcomes.
type Observer interface {
	ObserveAudit(action, status string)
}

// Queue publishes audit events as asynq tasks.
type Queue struct {
	client   Enqueuer
	queue    string
	observer Observer
	now      func() time.Time
}

// NewQueue constructs a Queue publishing to the named asynq queue. A nil client
// yields a Queue that drops every event.
func NewQueue(client Enqueuer, queue string, observer Observer) *Queue {
	return &Queue{client: client, queue: queue, observer: observer, now: time.Now}
}

// NewRecordTask wraps an event into an asynq task.
func NewRecordTask(event Event) (*asynq.Task, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("audit: encode event: %w", err)
	}
	return asynq.NewTask(TaskRecord, data, asynq.MaxRetry(10)), nil
}

// Record implements Recorder by enqueueing the event.
func (q *Queue) Record(ctx context.Context, event Event) error {
	if q == nil || q.client == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = q.now().UTC()
	}
	task, err := NewRecordTask(event)
	if err != nil {
		return err
	}
	var opts []asynq.Option
	if q.queue != "" {
		opts = append(opts, asynq.Queue(q.queue))
	}
	if _, err := q.client.EnqueueContext(ctx, task, opts...); err != nil {
		q.observe(event.Action, "failed")
		return fmt.Errorf("audit: enqueue: %w", err)
	}
	q.observe(event.Action, "enqueued")
	return nil
}

func (q *Queue) observe(action, status string) {
	if q.observer != nil {
		q.observer.ObserveAudit(action, status)
	}
}
