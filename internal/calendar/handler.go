package calendar

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
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	GetEvent(ctx context.Context, id int64) (*Event, error)
	InsertEvent(ctx context.Context, e *Event) (int64, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id int64) error
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
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

// list supports an optional ?from=&to= range, both RFC 3339 or plain
// dates.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	events, err := h.repo.ListEvents(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	event, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, event)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	event, err := h.decodeEvent(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	id, err := h.repo.InsertEvent(r.Context(), event)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	created, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	event, err := h.decodeEvent(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	event.ID = id
	if err := h.repo.UpdateEvent(r.Context(), event); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	updated, err := h.repo.GetEvent(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.repo.DeleteEvent(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) decodeEvent(r *http.Request) (*Event, error) {
	var input EventInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err, httpx.ErrValidation)
	}
	starts, err := parseTime(input.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("starts_at: %w", httpx.ErrValidation)
	}
	ends, err := parseTime(input.EndsAt)
	if err != nil {
		return nil, fmt.Errorf("ends_at: %w", httpx.ErrValidation)
	}
	if ends.Before(starts) {
		return nil, fmt.Errorf("ends_at must not precede starts_at: %w", httpx.ErrValidation)
	}
	return &Event{
		Title:    input.Title,
		StartsAt: starts,
		EndsAt:   ends,
		ClientID: input.ClientID,
		Notes:    input.Notes,
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date or RFC 3339 timestamp: %w", name, httpx.ErrBadInput)
	}
	return t, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id: %w", httpx.ErrBadInput)
	}
	return id, nil
}
