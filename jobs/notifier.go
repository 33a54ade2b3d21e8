package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/harborstay/harborstay/internal/bookings"
)

// Enqueuer submits jobs to the queue. It implements bookings.Notifier.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Asynq-backed enqueuer.
func NewEnqueuer(redisOpts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpts)}
}

// BookingDecided enqueues a decision notification email.
func (e *Enqueuer) BookingDecided(ctx context.Context, notice bookings.DecisionNotice) error {
	task, err := NewDecisionEmailTask(DecisionEmailPayload{
		BookingID:    notice.BookingID,
		To:           notice.RequesterEmail,
		Name:         notice.RequesterName,
		ListingTitle: notice.ListingTitle,
		Status:       string(notice.Status),
		TotalPrice:   notice.TotalPrice,
	})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}

// Close releases client resources.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

var _ bookings.Notifier = (*Enqueuer)(nil)
