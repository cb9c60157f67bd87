package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

const maxUploadBytes = 32 << 20

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
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/pdf", h.pdf)
	r.Post("/{id}/send", h.send)
	r.Post("/{id}/pay", h.pay)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if invoices == nil {
		invoices = []Invoice{}
	}
	httpx.JSON(w, http.StatusOK, invoices)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	input, err := parseGenerateInput(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.svc.Generate(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	input, err := parseGenerateInput(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := h.svc.Regenerate(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if err := h.svc.DeleteInvoice(r.Context(), id); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	pdf, err := h.svc.ReadPDF(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="invoice_%d.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Send)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Pay)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, date time.Time) (*Invoice, error)) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	date, err := optionalDate(r)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	inv, err := apply(r.Context(), id, date)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid invoice id: %w", httpx.ErrBadInput)
	}
	return id, nil
}

// parseGenerateInput reads the multipart form: client_id, template_id,
// the JSON data payload, an optional logo file and an optional fee
// payment link.
func parseGenerateInput(r *http.Request) (GenerateInput, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return GenerateInput{}, fmt.Errorf("invalid multipart form: %w", httpx.ErrBadInput)
	}
	clientID, err := strconv.ParseInt(r.FormValue("client_id"), 10, 64)
	if err != nil {
		return GenerateInput{}, fmt.Errorf("client_id must be an integer: %w", httpx.ErrBadInput)
	}
	templateID, err := strconv.ParseInt(r.FormValue("template_id"), 10, 64)
	if err != nil {
		return GenerateInput{}, fmt.Errorf("template_id must be an integer: %w", httpx.ErrBadInput)
	}
	input := GenerateInput{
		ClientID:   clientID,
		TemplateID: templateID,
		Data:       []byte(r.FormValue("data")),
	}
	if raw := r.FormValue("fee_payment_id"); raw != "" {
		feePaymentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return GenerateInput{}, fmt.Errorf("fee_payment_id must be an integer: %w", httpx.ErrBadInput)
		}
		input.FeePaymentID = &feePaymentID
	}

	file, header, err := r.FormFile("logo_file")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			return GenerateInput{}, fmt.Errorf("invalid logo upload: %w", httpx.ErrBadInput)
		}
	} else {
		defer func() {
			_ = file.Close()
		}()
		data, err := io.ReadAll(file)
		if err != nil {
			return GenerateInput{}, fmt.Errorf("read logo upload: %w", err)
		}
		input.Logo = &LogoUpload{Filename: header.Filename, Data: data}
	}
	return input, nil
}

// optionalDate reads the optional date form or query value for a status
// transition.
func optionalDate(r *http.Request) (time.Time, error) {
	raw := r.FormValue("date")
	if raw == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", httpx.ErrBadInput)
	}
	return date, nil
}
