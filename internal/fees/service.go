package fees

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	ListFees(ctx context.Context) ([]Fee, error)
	GetFee(ctx context.Context, id int64) (*Fee, error)
	InsertFee(ctx context.Context, f *Fee) (int64, error)
	UpdateFee(ctx context.Context, f *Fee) error
	DeleteFee(ctx context.Context, id int64) error
	ListPayments(ctx context.Context, feeID int64) ([]Payment, error)
	ListDuePayments(ctx context.Context, by time.Time) ([]Payment, error)
	LatestDueDate(ctx context.Context, feeID int64) (time.Time, error)
	InsertPayment(ctx context.Context, p *Payment) (int64, error)
	SettlePayment(ctx context.Context, id int64) error
}

type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger}
}

func (s *Service) ListFees(ctx context.Context) ([]Fee, error) {
	return s.repo.ListFees(ctx)
}

func (s *Service) GetFee(ctx context.Context, id int64) (*Fee, error) {
	return s.repo.GetFee(ctx, id)
}

func (s *Service) CreateFee(ctx context.Context, input FeeInput) (*Fee, error) {
	fee, err := s.feeFromInput(input)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.InsertFee(ctx, fee)
	if err != nil {
		return nil, err
	}
	return s.repo.GetFee(ctx, id)
}

func (s *Service) UpdateFee(ctx context.Context, id int64, input FeeInput) (*Fee, error) {
	if _, err := s.repo.GetFee(ctx, id); err != nil {
		return nil, err
	}
	fee, err := s.feeFromInput(input)
	if err != nil {
		return nil, err
	}
	fee.ID = id
	if err := s.repo.UpdateFee(ctx, fee); err != nil {
		return nil, err
	}
	return s.repo.GetFee(ctx, id)
}

func (s *Service) DeleteFee(ctx context.Context, id int64) error {
	return s.repo.DeleteFee(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, feeID int64) ([]Payment, error) {
	if _, err := s.repo.GetFee(ctx, feeID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, feeID)
}

func (s *Service) ListDuePayments(ctx context.Context, by time.Time) ([]Payment, error) {
	return s.repo.ListDuePayments(ctx, by)
}

func (s *Service) SettlePayment(ctx context.Context, id int64) error {
	return s.repo.SettlePayment(ctx, id)
}

// GenerateDue materialises one payment event per elapsed period of every
// active fee, up to and including now. Returns how many events were
// created. Safe to run repeatedly; generation continues from the latest
// existing due date.
func (s *Service) GenerateDue(ctx context.Context, now time.Time) (int, error) {
	fees, err := s.repo.ListFees(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, fee := range fees {
		if !fee.Active {
			continue
		}
		if !fee.Cadence.Valid() {
			// Rows predating input validation may carry junk; never
			// materialise payments on a cadence we cannot step.
			s.logger.Warn("skipping fee with unknown cadence",
				slog.Int64("fee_id", fee.ID), slog.String("cadence", string(fee.Cadence)))
			continue
		}
		latest, err := s.repo.LatestDueDate(ctx, fee.ID)
		if err != nil {
			return created, err
		}
		next := fee.StartDate
		if !latest.IsZero() {
			next = fee.Cadence.Next(latest)
		}
		for !next.After(now) {
			if _, err := s.repo.InsertPayment(ctx, &Payment{
				FeeID:   fee.ID,
				DueDate: next,
				Amount:  fee.Amount,
			}); err != nil {
				return created, err
			}
			created++
			next = fee.Cadence.Next(next)
		}
	}
	if created > 0 {
		s.logger.Info("generated fee payments", slog.Int("count", created))
	}
	return created, nil
}

func (s *Service) feeFromInput(input FeeInput) (*Fee, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err, httpx.ErrValidation)
	}
	start, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	return &Fee{
		ClientID:  input.ClientID,
		Title:     input.Title,
		Amount:    input.Amount,
		Cadence:   input.Cadence,
		StartDate: start,
		Active:    active,
	}, nil
}
