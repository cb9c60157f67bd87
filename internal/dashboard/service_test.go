package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fattura-app/fattura/internal/expenses"
)

type fakeStats struct {
	open    float64
	revenue float64
}

func (f *fakeStats) StatusTotals(context.Context) (map[string]StatusTotal, error) {
	return map[string]StatusTotal{
		"draft": {Count: 1, Total: 100},
		"sent":  {Count: 2, Total: f.open},
	}, nil
}

func (f *fakeStats) RevenueForYear(context.Context, int) (float64, error) {
	return f.revenue, nil
}

func (f *fakeStats) OpenTotal(context.Context) (float64, error) {
	return f.open, nil
}

func (f *fakeStats) DueFeePayments(context.Context, time.Time) (int, float64, error) {
	return 2, 50, nil
}

func (f *fakeStats) RecentInvoices(context.Context, int) ([]RecentInvoice, error) {
	return []RecentInvoice{{ID: 9, Number: "ABCD1234", ClientID: 1, Status: "sent", TotalAmount: f.open}}, nil
}

type fakeSettlement struct{}

func (fakeSettlement) Settlement(context.Context) (*expenses.Settlement, error) {
	return &expenses.Settlement{Balance: 42.5, Owes: "Bob"}, nil
}

func newTestService(t *testing.T) (*Service, *fakeStats) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	stats := &fakeStats{open: 300, revenue: 1200}
	cache := NewCache(client, time.Minute)
	svc := NewService(stats, fakeSettlement{}, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, stats
}

func TestSummaryAggregates(t *testing.T) {
	svc, _ := newTestService(t)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.InEpsilon(t, 1200.0, summary.RevenueThisYear, 1e-9)
	require.InEpsilon(t, 300.0, summary.OpenTotal, 1e-9)
	require.Equal(t, 2, summary.DuePaymentCount)
	require.InEpsilon(t, 42.5, summary.SettlementBalance, 1e-9)
	require.Equal(t, "Bob", summary.SettlementOwes)
	require.Len(t, summary.RecentInvoices, 1)
	require.Equal(t, "ABCD1234", summary.RecentInvoices[0].Number)
}

func TestSummaryServedFromCache(t *testing.T) {
	svc, stats := newTestService(t)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)

	// Underlying data changes but the cached summary is still served.
	stats.open = 999
	second, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.InEpsilon(t, first.OpenTotal, second.OpenTotal, 1e-9)

	svc.Invalidate(ctx)
	third, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.InEpsilon(t, 999.0, third.OpenTotal, 1e-9)
}

func TestSummaryWithoutCache(t *testing.T) {
	stats := &fakeStats{open: 10, revenue: 20}
	svc := NewService(stats, fakeSettlement{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.InEpsilon(t, 10.0, summary.OpenTotal, 1e-9)
}
