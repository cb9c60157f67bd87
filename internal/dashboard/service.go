package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/fattura-app/fattura/internal/expenses"
)

const recentLimit = 5

// RepositoryPort is the aggregate query surface the service needs.
type RepositoryPort interface {
	StatusTotals(ctx context.Context) (map[string]StatusTotal, error)
	RevenueForYear(ctx context.Context, year int) (float64, error)
	OpenTotal(ctx context.Context) (float64, error)
	DueFeePayments(ctx context.Context, by time.Time) (int, float64, error)
	RecentInvoices(ctx context.Context, limit int) ([]RecentInvoice, error)
}

// SettlementSource exposes the expense settlement balance.
type SettlementSource interface {
	Settlement(ctx context.Context) (*expenses.Settlement, error)
}

type Service struct {
	repo       RepositoryPort
	settlement SettlementSource
	cache      *Cache
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryPort, settlement SettlementSource, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, settlement: settlement, cache: cache, logger: logger, now: time.Now}
}

// Summary returns the dashboard aggregate, served from cache when fresh.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx); ok {
			return cached, nil
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary after a mutation.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", slog.Any("error", err))
	}
}

func (s *Service) compute(ctx context.Context) (*Summary, error) {
	now := s.now()

	byStatus, err := s.repo.StatusTotals(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.RevenueForYear(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	open, err := s.repo.OpenTotal(ctx)
	if err != nil {
		return nil, err
	}
	dueCount, dueTotal, err := s.repo.DueFeePayments(ctx, now)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentInvoices(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	settlement, err := s.settlement.Settlement(ctx)
	if err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []RecentInvoice{}
	}
	return &Summary{
		ByStatus:          byStatus,
		RevenueThisYear:   revenue,
		OpenTotal:         open,
		DuePaymentCount:   dueCount,
		DuePaymentTotal:   dueTotal,
		SettlementBalance: settlement.Balance,
		SettlementOwes:    settlement.Owes,
		RecentInvoices:    recent,
	}, nil
}
