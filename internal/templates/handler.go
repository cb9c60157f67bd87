package templates

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

const maxUploadBytes = 16 << 20

// Handler manages template endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers template routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.upload)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/fields", h.fields)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []Template{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "expected multipart form")
		return
	}
	markupName, markup, err := formFile(r, "html_file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "html_file is required")
		return
	}
	cssName, css, err := formFile(r, "css_file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "css_file is required")
		return
	}

	t, err := h.service.Upload(r.Context(), UploadInput{
		Name:           r.FormValue("name"),
		MarkupFile:     markupName,
		Markup:         markup,
		StylesheetFile: cssName,
		Stylesheet:     css,
	})
	if err != nil {
		h.logger.Error("upload template", slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": t.ID, "fields": t.Fields})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "template id must be numeric")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "expected multipart form")
		return
	}

	input := UpdateInput{Name: r.FormValue("name")}
	if name, data, err := formFile(r, "html_file"); err == nil {
		input.MarkupFile = name
		input.Markup = data
	}
	if name, data, err := formFile(r, "css_file"); err == nil {
		input.StylesheetFile = name
		input.Stylesheet = data
	}

	t, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		h.logger.Error("update template", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true, "fields": t.Fields})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "template id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete template", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) fields(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "template id must be numeric")
		return
	}
	fields, err := h.service.Fields(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]string{"fields": fields})
}

// formFile reads a named multipart file fully into memory.
func formFile(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
