package todos

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort is the storage surface the handler uses directly; the
// package is plain CRUD with no service layer in between.
type RepositoryPort interface {
	ListTodos(ctx context.Context) ([]Todo, error)
	GetTodo(ctx context.Context, id int64) (*Todo, error)
	InsertTodo(ctx context.Context, text string, clientID *int64, due *time.Time) (int64, error)
	UpdateTodo(ctx context.Context, id int64, text string, clientID *int64, due *time.Time) error
	ToggleTodo(ctx context.Context, id int64) error
	DeleteTodo(ctx context.Context, id int64) error
}

type Handler struct {
	repo     RepositoryPort
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{repo: repo, validate: validator.New(), logger: logger}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Post("/{id}/toggle", h.toggle)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.ListTodos(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if all == nil {
		all = []Todo{}
	}
	httpx.JSON(w, http.StatusOK, all)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, due, err := h.decodeInput(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	id, err := h.repo.InsertTodo(r.Context(), input.Text, input.ClientID, due)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	todo, err := h.repo.GetTodo(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, todo)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	input, due, err := h.decodeInput(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.repo.UpdateTodo(r.Context(), id, input.Text, input.ClientID, due); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	todo, err := h.repo.GetTodo(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, todo)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.repo.ToggleTodo(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	todo, err := h.repo.GetTodo(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, todo)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.repo.DeleteTodo(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decodeInput(r *http.Request) (TodoInput, *time.Time, error) {
	var input TodoInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		return input, nil, err
	}
	if err := h.validate.Struct(input); err != nil {
		return input, nil, fmt.Errorf("%s: %w", err, httpx.ErrValidation)
	}
	if input.DueDate == "" {
		return input, nil, nil
	}
	due, err := time.Parse("2006-01-02", input.DueDate)
	if err != nil {
		return input, nil, fmt.Errorf("due_date must be YYYY-MM-DD: %w", httpx.ErrValidation)
	}
	return input, &due, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id: %w", httpx.ErrBadInput)
	}
	return id, nil
}
