package fees

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
	r.Get("/payments/due", h.duePayments)
	r.Post("/payments/{paymentID}/settle", h.settle)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/payments", h.payments)
	r.Post("/generate", h.generate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	fees, err := h.svc.ListFees(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if fees == nil {
		fees = []Fee{}
	}
	httpx.JSON(w, http.StatusOK, fees)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	fee, err := h.svc.GetFee(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fee)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input FeeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	fee, err := h.svc.CreateFee(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fee)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var input FeeInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	fee, err := h.svc.UpdateFee(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, fee)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteFee(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	payments, err := h.svc.ListPayments(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if payments == nil {
		payments = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) duePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.ListDuePayments(r.Context(), time.Now())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if payments == nil {
		payments = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "paymentID")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.svc.SettlePayment(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

// generate triggers due-payment materialisation on demand, the same
// operation the scheduler runs daily.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.GenerateDue(r.Context(), time.Now())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"created": created})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, httpx.ErrBadInput)
	}
	return id, nil
}
