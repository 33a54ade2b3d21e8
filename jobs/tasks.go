package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/harborstay/harborstay/internal/listings"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeDecisionEmail is the task type for booking decision emails.
	TaskTypeDecisionEmail = "booking:decision_email"
	// TaskTypeListingsWarmup is the task type for warming the public feed cache.
	TaskTypeListingsWarmup = "listings:warmup"
)

// DecisionEmailPayload describes the booking decision to notify about.
type DecisionEmailPayload struct {
	BookingID    int64   `json:"booking_id"`
	To           string  `json:"to"`
	Name         string  `json:"name"`
	ListingTitle string  `json:"listing_title"`
	Status       string  `json:"status"`
	TotalPrice   float64 `json:"total_price"`
}

// NewDecisionEmailTask constructs an Asynq task.
func NewDecisionEmailTask(payload DecisionEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeDecisionEmail, data), nil
}

// HandleDecisionEmailTask processes TaskTypeDecisionEmail tasks.
func HandleDecisionEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload DecisionEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: deliver via SMTP once a mail provider is wired up.
	printer := message.NewPrinter(language.English)
	body := printer.Sprintf("Your booking #%d for %q was %s. Total: %.2f", payload.BookingID, payload.ListingTitle, payload.Status, payload.TotalPrice)
	fmt.Printf("[jobs] send email to %s: %s\n", payload.To, body)
	return nil
}

// NewListingsWarmupTask constructs the cache warmup task.
func NewListingsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeListingsWarmup, nil)
}

// ListingsWarmer preloads the first pages of the public feed cache.
type ListingsWarmer struct {
	Service *listings.Service
	Logger  *slog.Logger
}

// Handle processes TaskTypeListingsWarmup tasks.
func (w *ListingsWarmer) Handle(ctx context.Context, t *asynq.Task) error {
	if w.Service == nil {
		return asynq.SkipRetry
	}
	for page := 1; page <= 3; page++ {
		if _, err := w.Service.ListActive(ctx, listings.ListActiveRequest{Page: page, PerPage: 20}); err != nil {
			if w.Logger != nil {
				w.Logger.Warn("listings warmup", slog.Int("page", page), slog.Any("error", err))
			}
			return err
		}
	}
	return nil
}
