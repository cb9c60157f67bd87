package bank

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

// RepositoryPort defines data access for the bank profile.
type RepositoryPort interface {
	GetProfile(ctx context.Context) (*Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
}

// Handler manages bank profile endpoints. The domain carries no rules of
// its own, so the handler talks to the repository directly.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers bank profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/", h.update)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetProfile(r.Context())
	if err != nil {
		h.logger.Error("get bank profile", slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var p Profile
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.repo.UpdateProfile(r.Context(), p); err != nil {
		h.logger.Error("update bank profile", slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
