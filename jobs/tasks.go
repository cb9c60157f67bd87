// Package jobs wires background work through asynq: the daily fee
// materialisation cron and best-effort telegram notifications.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFeesGenerate materialises due fee payments.
	TaskFeesGenerate = "fees:generate"
	// TaskNotifyTelegram delivers a notification message.
	TaskNotifyTelegram = "notify:telegram"
)

// FeesGenerateCronSpec runs the fee materialisation once a day.
const FeesGenerateCronSpec = "0 6 * * *"

// NotifyPayload is the telegram notification task body.
type NotifyPayload struct {
	Text string `json:"text"`
}

// NewFeesGenerateTask constructs the cron task.
func NewFeesGenerateTask() *asynq.Task {
	return asynq.NewTask(TaskFeesGenerate, nil)
}

// NewNotifyTask constructs a telegram notification task.
func NewNotifyTask(payload NotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyTelegram, data), nil
}

// FeeGenerator is the slice of the fee service the worker needs.
type FeeGenerator interface {
	GenerateDue(ctx context.Context, now time.Time) (int, error)
}

// Messenger is the slice of the telegram client the worker needs.
type Messenger interface {
	SendMessage(ctx context.Context, text string) error
}

// NewFeesGenerateHandler processes TaskFeesGenerate tasks.
func NewFeesGenerateHandler(generator FeeGenerator, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		created, err := generator.GenerateDue(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("jobs: generate fee payments: %w", err)
		}
		logger.Info("fee generation run", slog.Int("created", created))
		return nil
	}
}

// NewNotifyTelegramHandler processes TaskNotifyTelegram tasks. A
// malformed payload is dropped rather than retried.
func NewNotifyTelegramHandler(messenger Messenger, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Warn("notify task with bad payload dropped", slog.Any("error", err))
			return asynq.SkipRetry
		}
		return messenger.SendMessage(ctx, payload.Text)
	}
}
