package expenses

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, svc *Service) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/settlement", h.settlement)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.ListExpenses(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if all == nil {
		all = []Expense{}
	}
	httpx.JSON(w, http.StatusOK, all)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expense, err := h.svc.GetExpense(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input ExpenseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expense, err := h.svc.CreateExpense(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var input ExpenseInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	expense, err := h.svc.UpdateExpense(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteExpense(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) settlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := h.svc.Settlement(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settlement)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id: %w", httpx.ErrBadInput)
	}
	return id, nil
}
