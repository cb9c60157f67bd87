package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	ListExpenses(ctx context.Context) ([]Expense, error)
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	InsertExpense(ctx context.Context, e *Expense) (int64, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	partner1 string
	partner2 string
}

func NewService(repo RepositoryPort, partner1, partner2 string) *Service {
	return &Service{repo: repo, validate: validator.New(), partner1: partner1, partner2: partner2}
}

func (s *Service) ListExpenses(ctx context.Context) ([]Expense, error) {
	return s.repo.ListExpenses(ctx)
}

func (s *Service) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) CreateExpense(ctx context.Context, input ExpenseInput) (*Expense, error) {
	expense, err := s.expenseFromInput(input)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.InsertExpense(ctx, expense)
	if err != nil {
		return nil, err
	}
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) UpdateExpense(ctx context.Context, id int64, input ExpenseInput) (*Expense, error) {
	if _, err := s.repo.GetExpense(ctx, id); err != nil {
		return nil, err
	}
	expense, err := s.expenseFromInput(input)
	if err != nil {
		return nil, err
	}
	expense.ID = id
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.repo.DeleteExpense(ctx, id)
}

// Settlement computes who owes whom. For every expense the payer covered
// the full amount but only owns their split share, so the other partner
// owes the remainder. Balances accumulate in decimal and round once at
// the end.
func (s *Service) Settlement(ctx context.Context) (*Settlement, error) {
	all, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	paid1, paid2 := decimal.Zero, decimal.Zero
	share1, share2 := decimal.Zero, decimal.Zero
	balance := decimal.Zero // positive: partner2 owes partner1

	for _, e := range all {
		amount := decimal.NewFromFloat(e.Amount)
		split := decimal.NewFromFloat(e.SplitPartner1)
		owed1 := amount.Mul(split).Div(hundred)
		owed2 := amount.Sub(owed1)
		share1 = share1.Add(owed1)
		share2 = share2.Add(owed2)
		switch e.Payer {
		case PayerPartner1:
			paid1 = paid1.Add(amount)
			balance = balance.Add(owed2)
		case PayerPartner2:
			paid2 = paid2.Add(amount)
			balance = balance.Sub(owed1)
		}
	}

	balance = balance.Round(2)
	settlement := &Settlement{
		Partner1:      s.partner1,
		Partner2:      s.partner2,
		PaidPartner1:  paid1.Round(2).InexactFloat64(),
		PaidPartner2:  paid2.Round(2).InexactFloat64(),
		SharePartner1: share1.Round(2).InexactFloat64(),
		SharePartner2: share2.Round(2).InexactFloat64(),
		Balance:       balance.InexactFloat64(),
	}
	switch {
	case balance.IsPositive():
		settlement.Owes = s.partner2
	case balance.IsNegative():
		settlement.Owes = s.partner1
	}
	return settlement, nil
}

func (s *Service) expenseFromInput(input ExpenseInput) (*Expense, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err, httpx.ErrValidation)
	}
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	return &Expense{
		Description:   input.Description,
		Amount:        input.Amount,
		Payer:         input.Payer,
		SplitPartner1: input.SplitPartner1,
		Date:          date,
	}, nil
}
