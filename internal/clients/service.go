package clients

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort defines data access methods for clients.
type RepositoryPort interface {
	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id int64) (*Client, error)
	CreateClient(ctx context.Context, input ClientInput) (int64, error)
	UpdateClient(ctx context.Context, id int64, input ClientInput) error
	DeleteClient(ctx context.Context, id int64) error
}

// Service handles client business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns all clients.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}

// Get returns a client by id.
func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, input ClientInput) (int64, error) {
	if err := s.validate.Struct(input); err != nil {
		return 0, fmt.Errorf("clients: %v: %w", err, httpx.ErrValidation)
	}
	return s.repo.CreateClient(ctx, input)
}

// Update validates and overwrites an existing client.
func (s *Service) Update(ctx context.Context, id int64, input ClientInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("clients: %v: %w", err, httpx.ErrValidation)
	}
	return s.repo.UpdateClient(ctx, id, input)
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteClient(ctx, id)
}
