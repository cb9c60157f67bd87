package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	created int
	called  bool
}

func (f *fakeGenerator) GenerateDue(context.Context, time.Time) (int, error) {
	f.called = true
	return f.created, nil
}

type fakeMessenger struct {
	text string
}

func (f *fakeMessenger) SendMessage(_ context.Context, text string) error {
	f.text = text
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFeesGenerateHandler(t *testing.T) {
	gen := &fakeGenerator{created: 3}
	handler := NewFeesGenerateHandler(gen, discardLogger())

	require.NoError(t, handler(context.Background(), NewFeesGenerateTask()))
	require.True(t, gen.called)
}

func TestNotifyHandlerDelivers(t *testing.T) {
	msg := &fakeMessenger{}
	handler := NewNotifyTelegramHandler(msg, discardLogger())

	task, err := NewNotifyTask(NotifyPayload{Text: "Invoice ABCD1234 paid: CHF 200.00"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, "Invoice ABCD1234 paid: CHF 200.00", msg.text)
}

func TestNotifyHandlerDropsBadPayload(t *testing.T) {
	handler := NewNotifyTelegramHandler(&fakeMessenger{}, discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskNotifyTelegram, []byte("{not json")))
	require.True(t, errors.Is(err, asynq.SkipRetry))
}
