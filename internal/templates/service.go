package templates

import (
	"context"
	"fmt"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort defines data access methods for templates.
type RepositoryPort interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id int64) (*Template, error)
	CreateTemplate(ctx context.Context, t Template) (int64, error)
	UpdateTemplate(ctx context.Context, t Template) error
	DeleteTemplate(ctx context.Context, id int64) error
}

// Service handles template uploads and field caching.
type Service struct {
	repo  RepositoryPort
	files FileStore
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, files FileStore) *Service {
	return &Service{repo: repo, files: files}
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]Template, error) {
	return s.repo.ListTemplates(ctx)
}

// Get returns a template by id.
func (s *Service) Get(ctx context.Context, id int64) (*Template, error) {
	return s.repo.GetTemplate(ctx, id)
}

// Fields returns the cached placeholder list for a template.
func (s *Service) Fields(ctx context.Context, id int64) ([]string, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Fields == nil {
		return []string{}, nil
	}
	return t.Fields, nil
}

// Upload stores a new template: both files land in a directory named after
// the template and the placeholder fields are extracted from the markup.
func (s *Service) Upload(ctx context.Context, input UploadInput) (*Template, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("templates: name required: %w", httpx.ErrValidation)
	}
	if len(input.Markup) == 0 || len(input.Stylesheet) == 0 {
		return nil, fmt.Errorf("templates: markup and stylesheet files required: %w", httpx.ErrValidation)
	}
	if err := s.files.WriteFile(input.Name, input.MarkupFile, input.Markup); err != nil {
		return nil, err
	}
	if err := s.files.WriteFile(input.Name, input.StylesheetFile, input.Stylesheet); err != nil {
		return nil, err
	}

	t := Template{
		Name:           input.Name,
		Dir:            input.Name,
		MarkupFile:     input.MarkupFile,
		StylesheetFile: input.StylesheetFile,
		Fields:         ExtractFields(string(input.Markup)),
	}
	id, err := s.repo.CreateTemplate(ctx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id
	return &t, nil
}

// Update applies a partial template update. The cached field list is
// recomputed whenever new markup arrives; a stylesheet-only change leaves it
// untouched. A pure rename copies the previous directory contents so the
// stored filenames keep resolving.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Template, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("templates: name required: %w", httpx.ErrValidation)
	}
	current, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	next.Name = input.Name
	next.Dir = input.Name

	if input.Markup == nil && input.Stylesheet == nil && current.Dir != input.Name {
		if err := s.files.CopyAll(current.Dir, input.Name); err != nil {
			return nil, err
		}
	}
	if input.Markup != nil {
		if err := s.files.WriteFile(input.Name, input.MarkupFile, input.Markup); err != nil {
			return nil, err
		}
		next.MarkupFile = input.MarkupFile
		next.Fields = ExtractFields(string(input.Markup))
	}
	if input.Stylesheet != nil {
		if err := s.files.WriteFile(input.Name, input.StylesheetFile, input.Stylesheet); err != nil {
			return nil, err
		}
		next.StylesheetFile = input.StylesheetFile
	}

	if err := s.repo.UpdateTemplate(ctx, next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete removes the template record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteTemplate(ctx, id)
}
