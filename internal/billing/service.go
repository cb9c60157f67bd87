package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fattura-app/fattura/internal/bank"
	"github.com/fattura-app/fattura/internal/clients"
	"github.com/fattura-app/fattura/internal/platform/httpx"
	"github.com/fattura-app/fattura/internal/qrbill"
	"github.com/fattura-app/fattura/internal/shared"
	"github.com/fattura-app/fattura/internal/templates"
)

// insertAttempts bounds the redraw loop when an insert loses the race on
// the invoice number unique constraint.
const insertAttempts = 5

// RepositoryPort is the persistence surface the service needs.
type RepositoryPort interface {
	NumberChecker
	ListInvoices(ctx context.Context) ([]Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	InsertInvoice(ctx context.Context, inv *Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv *Invoice) error
	MarkSent(ctx context.Context, id int64, date time.Time) error
	MarkPaid(ctx context.Context, id int64, date time.Time) error
	DeleteInvoice(ctx context.Context, id int64) error
}

// ClientDirectory resolves the billed customer.
type ClientDirectory interface {
	GetClient(ctx context.Context, id int64) (*clients.Client, error)
}

// TemplateDirectory resolves the document template.
type TemplateDirectory interface {
	GetTemplate(ctx context.Context, id int64) (*templates.Template, error)
}

// BankDirectory resolves the creditor profile for payment slips.
type BankDirectory interface {
	GetProfile(ctx context.Context) (*bank.Profile, error)
}

// DocumentRenderer turns rendered HTML plus its assets into a PDF.
type DocumentRenderer interface {
	RenderDocument(ctx context.Context, html string, assets map[string][]byte) ([]byte, error)
}

// Notifier is told about paid invoices. Delivery is best effort.
type Notifier interface {
	InvoicePaid(ctx context.Context, number string, amount float64) error
}

// SlipFunc generates a payment slip into outputDir.
type SlipFunc func(req qrbill.Request, outputDir string) (string, error)

// Params bundles the service dependencies.
type Params struct {
	Repo          RepositoryPort
	Clients       ClientDirectory
	Templates     TemplateDirectory
	Bank          BankDirectory
	TemplateFiles templates.FileStore
	Artifacts     ArtifactStore
	PDF           DocumentRenderer
	Slip          SlipFunc
	Notifier      Notifier
	Logger        *slog.Logger
	HomeCountry   string
}

type Service struct {
	repo        RepositoryPort
	clients     ClientDirectory
	templates   TemplateDirectory
	bank        BankDirectory
	tplFiles    templates.FileStore
	artifacts   ArtifactStore
	pdf         DocumentRenderer
	slip        SlipFunc
	notifier    Notifier
	locks       *shared.KeyedMutex
	logger      *slog.Logger
	homeCountry string
}

func NewService(p Params) *Service {
	slip := p.Slip
	if slip == nil {
		slip = qrbill.Generate
	}
	return &Service{
		repo:        p.Repo,
		clients:     p.Clients,
		templates:   p.Templates,
		bank:        p.Bank,
		tplFiles:    p.TemplateFiles,
		artifacts:   p.Artifacts,
		pdf:         p.PDF,
		slip:        slip,
		notifier:    p.Notifier,
		locks:       shared.NewKeyedMutex(),
		logger:      p.Logger,
		homeCountry: p.HomeCountry,
	}
}

func (s *Service) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// Generate creates a new invoice: allocates a number, stores the draft
// row and assembles all document artifacts.
func (s *Service) Generate(ctx context.Context, input GenerateInput) (*Invoice, error) {
	payload, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		ClientID:     input.ClientID,
		TemplateID:   input.TemplateID,
		Data:         json.RawMessage(input.Data),
		Status:       StatusDraft,
		FeePaymentID: input.FeePaymentID,
	}
	applyPayloadFields(inv, payload)

	if err := s.insertWithNumber(ctx, inv); err != nil {
		return nil, err
	}

	s.locks.Lock(inv.ID)
	defer s.locks.Unlock(inv.ID)

	total, err := s.assemble(ctx, inv, payload, input.Logo)
	if err != nil {
		return nil, err
	}
	inv.TotalAmount = total.InexactFloat64()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, inv.ID)
}

// Regenerate rebuilds an existing invoice's documents from a fresh
// payload. The invoice number and lifecycle state are preserved.
func (s *Service) Regenerate(ctx context.Context, id int64, input GenerateInput) (*Invoice, error) {
	payload, err := s.validateInput(input)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.ClientID = input.ClientID
	inv.TemplateID = input.TemplateID
	inv.Data = json.RawMessage(input.Data)
	if input.FeePaymentID != nil {
		inv.FeePaymentID = input.FeePaymentID
	}
	applyPayloadFields(inv, payload)

	total, err := s.assemble(ctx, inv, payload, input.Logo)
	if err != nil {
		return nil, err
	}
	inv.TotalAmount = total.InexactFloat64()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, id)
}

// Send marks the invoice as sent, recording when. A zero date means
// today.
func (s *Service) Send(ctx context.Context, id int64, date time.Time) (*Invoice, error) {
	if date.IsZero() {
		date = time.Now()
	}
	if _, err := s.repo.GetInvoice(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.MarkSent(ctx, id, date); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, id)
}

// Pay marks the invoice as paid and notifies, best effort.
func (s *Service) Pay(ctx context.Context, id int64, date time.Time) (*Invoice, error) {
	if date.IsZero() {
		date = time.Now()
	}
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkPaid(ctx, id, date); err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.InvoicePaid(ctx, inv.Number, inv.TotalAmount); err != nil {
			s.logger.Warn("paid notification failed", slog.String("number", inv.Number), slog.Any("error", err))
		}
	}
	return s.repo.GetInvoice(ctx, id)
}

// DeleteInvoice removes the row and its artifact directory.
func (s *Service) DeleteInvoice(ctx context.Context, id int64) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if err := s.repo.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	if err := s.artifacts.RemoveAll(id); err != nil {
		s.logger.Warn("artifact cleanup failed", slog.Int64("invoice_id", id), slog.Any("error", err))
	}
	return nil
}

// ReadPDF returns the stored PDF document for streaming.
func (s *Service) ReadPDF(ctx context.Context, id int64) ([]byte, error) {
	if _, err := s.repo.GetInvoice(ctx, id); err != nil {
		return nil, err
	}
	if !s.artifacts.Exists(id, PDFFileName) {
		return nil, fmt.Errorf("invoice %d pdf: %w", id, httpx.ErrNotFound)
	}
	return s.artifacts.Read(id, PDFFileName)
}

func (s *Service) validateInput(input GenerateInput) (map[string]any, error) {
	if input.ClientID <= 0 {
		return nil, fmt.Errorf("client_id is required: %w", httpx.ErrBadInput)
	}
	if input.TemplateID <= 0 {
		return nil, fmt.Errorf("template_id is required: %w", httpx.ErrBadInput)
	}
	payload, err := decodePayload(input.Data)
	if err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", httpx.ErrBadInput)
	}
	return payload, nil
}

// insertWithNumber draws numbers until the insert sticks. The unique
// constraint on the number column decides collisions.
func (s *Service) insertWithNumber(ctx context.Context, inv *Invoice) error {
	for i := 0; i < insertAttempts; i++ {
		number, err := allocateNumber(ctx, s.repo)
		if err != nil {
			return err
		}
		inv.Number = number
		id, err := s.repo.InsertInvoice(ctx, inv)
		if err == nil {
			inv.ID = id
			return nil
		}
		if !errors.Is(err, ErrNumberTaken) {
			return err
		}
		s.logger.Warn("invoice number collision, redrawing", slog.String("number", number))
	}
	return fmt.Errorf("billing: invoice number kept colliding after %d inserts", insertAttempts)
}

// assemble runs the full document pipeline for one invoice and returns
// the computed total. The caller holds the per-invoice lock.
func (s *Service) assemble(ctx context.Context, inv *Invoice, payload map[string]any, logo *LogoUpload) (decimal.Decimal, error) {
	client, err := s.clients.GetClient(ctx, inv.ClientID)
	if err != nil {
		return decimal.Zero, err
	}
	tpl, err := s.templates.GetTemplate(ctx, inv.TemplateID)
	if err != nil {
		return decimal.Zero, err
	}
	profile, err := s.bank.GetProfile(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	markup, err := s.tplFiles.ReadFile(tpl.Dir, tpl.MarkupFile)
	if err != nil {
		return decimal.Zero, err
	}

	items, subtotal, err := computeItems(payload)
	if err != nil {
		return decimal.Zero, err
	}
	total := subtotal

	// The resolved country feeds both the slip debtor and the render
	// context, so a client without one reads the same everywhere.
	country := client.Nation
	if country == "" {
		country = s.homeCountry
	}

	slipInfo := stringFromPayload(payload, "notes")
	if slipInfo == "" {
		slipInfo = "Invoice " + inv.Number
	}

	qrImage, err := s.generateSlip(inv, client, profile, total, country, slipInfo)
	if err != nil {
		return decimal.Zero, err
	}

	logoName, err := s.persistLogo(inv.ID, logo)
	if err != nil {
		return decimal.Zero, err
	}

	assets := map[string][]byte{}
	stylesheet, err := s.tplFiles.ReadFile(tpl.Dir, tpl.StylesheetFile)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.artifacts.Write(inv.ID, tpl.StylesheetFile, stylesheet); err != nil {
		return decimal.Zero, err
	}
	assets[tpl.StylesheetFile] = stylesheet

	// Templates may ship their own fixed images next to the markup.
	for _, name := range []string{"logo.png", "qr.png"} {
		if !s.tplFiles.Exists(tpl.Dir, name) {
			continue
		}
		data, err := s.tplFiles.ReadFile(tpl.Dir, name)
		if err != nil {
			return decimal.Zero, err
		}
		if err := s.artifacts.Write(inv.ID, name, data); err != nil {
			return decimal.Zero, err
		}
		assets[name] = data
	}

	renderCtx := buildContext(inv, client, country, payload, items, subtotal, total, qrImage, logoName)
	html := renderMarkup(string(markup), renderCtx)
	if err := s.artifacts.Write(inv.ID, RenderedFileName, []byte(html)); err != nil {
		return decimal.Zero, err
	}

	if qrImage != "" {
		slip, err := s.artifacts.Read(inv.ID, qrbill.SlipFileName)
		if err != nil {
			return decimal.Zero, err
		}
		assets[qrbill.SlipFileName] = slip
	}
	if logoName != "" {
		data, err := s.artifacts.Read(inv.ID, logoName)
		if err != nil {
			return decimal.Zero, err
		}
		assets[logoName] = data
	}

	pdf, err := s.pdf.RenderDocument(ctx, html, assets)
	if err != nil {
		return decimal.Zero, fmt.Errorf("billing: render pdf: %w", err)
	}
	if err := s.artifacts.Write(inv.ID, PDFFileName, pdf); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// generateSlip produces the payment slip and returns the img markup for
// the document, or empty when slip inputs are incomplete. Validation
// failures are logged and skipped; storage failures abort the pipeline.
func (s *Service) generateSlip(inv *Invoice, client *clients.Client, profile *bank.Profile, total decimal.Decimal, country, info string) (string, error) {
	req := qrbill.Request{
		Creditor: qrbill.Creditor{
			Account:    profile.IBAN,
			Name:       profile.CreditorName,
			Street:     profile.CreditorStreet,
			PostalCode: profile.CreditorPostal,
			City:       profile.CreditorCity,
			Country:    profile.CreditorCountry,
		},
		Debtor: qrbill.Debtor{
			Name:       client.Name,
			Street:     client.Address,
			PostalCode: client.Cap,
			City:       client.City,
			Country:    country,
		},
		Amount:         total.StringFixed(2),
		AdditionalInfo: info,
	}
	if _, err := s.slip(req, s.artifacts.Dir(inv.ID)); err != nil {
		if errors.Is(err, httpx.ErrValidation) {
			s.logger.Warn("payment slip skipped", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
			return "", nil
		}
		return "", err
	}
	return fmt.Sprintf(`<img src="%s" class="qr-bill" alt="QR Bill" />`, qrbill.SlipFileName), nil
}

// persistLogo stores an uploaded logo, or falls back to a logo kept from
// a previous generation.
func (s *Service) persistLogo(invoiceID int64, logo *LogoUpload) (string, error) {
	if logo == nil {
		return findLogo(s.artifacts, invoiceID), nil
	}
	ext := strings.ToLower(filepath.Ext(logo.Filename))
	known := false
	for _, candidate := range logoExtensions {
		if ext == candidate {
			known = true
			break
		}
	}
	if !known {
		ext = ".png"
	}
	name := logoBaseName + ext
	if err := s.artifacts.Write(invoiceID, name, logo.Data); err != nil {
		return "", err
	}
	return name, nil
}

// decodePayload parses the submitted data as a JSON object, keeping
// numbers as json.Number so monetary values survive untouched.
func decodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// computeItems prices the line items. Each total is rounded to two
// decimals before summing, so the grand total always equals the sum of
// the printed positions.
func computeItems(payload map[string]any) ([]LineItem, decimal.Decimal, error) {
	raw, _ := payload["items"].([]any)
	items := make([]LineItem, 0, len(raw))
	subtotal := decimal.Zero
	for i, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("item %d is not an object: %w", i, httpx.ErrBadInput)
		}
		price, err := decimalField(fields, "price")
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: %w", i, err)
		}
		qty, err := decimalField(fields, "qty")
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: %w", i, err)
		}
		lineTotal := price.Mul(qty).Round(2)
		subtotal = subtotal.Add(lineTotal)
		items = append(items, LineItem{
			Description: stringify(fields["description"]),
			Price:       price.StringFixed(2),
			Qty:         stringify(fields["qty"]),
			Total:       lineTotal.StringFixed(2),
		})
	}
	return items, subtotal, nil
}

func decimalField(fields map[string]any, key string) (decimal.Decimal, error) {
	value, ok := fields[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("missing %s: %w", key, httpx.ErrBadInput)
	}
	d, err := decimal.NewFromString(stringify(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a number: %w", key, httpx.ErrBadInput)
	}
	return d, nil
}

// buildContext assembles the flat value space the template renders
// against. Free-form payload keys come first so the computed values
// always win.
func buildContext(inv *Invoice, client *clients.Client, country string, payload map[string]any, items []LineItem, subtotal, total decimal.Decimal, qrImage, logoName string) map[string]any {
	ctx := map[string]any{}
	for key, value := range payload {
		if key == "date" || key == "invoice_date" {
			continue
		}
		ctx[key] = value
	}

	clientCtx := map[string]any{
		"name":           client.Name,
		"address":        client.Address,
		"cap":            client.Cap,
		"city":           client.City,
		"nation":         client.Nation,
		"email":          client.Email,
		"zip":            client.Cap,
		"country":        country,
		"formatted_city": client.City + ", " + client.Cap,
	}
	ctx["client"] = clientCtx
	ctx["customer"] = clientCtx

	ctx["items"] = items
	ctx["subtotal"] = subtotal.StringFixed(2)
	ctx["net_total"] = total.StringFixed(2)
	ctx["total"] = total.StringFixed(2)
	ctx["invoice_number"] = inv.Number

	// A payload without a date renders an empty date, not today.
	date := stringFromPayload(payload, "date")
	if date == "" {
		date = stringFromPayload(payload, "invoice_date")
	}
	date = swissDate(date)
	ctx["invoice_date"] = date
	ctx["date"] = date

	logoMarkup := ""
	if logoName != "" {
		logoMarkup = fmt.Sprintf(`<img src="%s" class="logo" alt="Logo" />`, logoName)
	}
	ctx["logo"] = logoMarkup
	ctx["qr_image"] = qrImage
	return ctx
}

// applyPayloadFields lifts the bookkeeping fields out of the payload
// into invoice columns. The revenue split defaults to an even half.
func applyPayloadFields(inv *Invoice, payload map[string]any) {
	inv.Title = stringFromPayload(payload, "title")
	inv.Description = stringFromPayload(payload, "description")
	inv.SharePartner1 = floatFromPayload(payload, "share_partner1", 50)
	inv.SharePartner2 = floatFromPayload(payload, "share_partner2", 50)
}

func stringFromPayload(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}

func floatFromPayload(payload map[string]any, key string, fallback float64) float64 {
	if value, ok := payload[key].(json.Number); ok {
		if f, err := value.Float64(); err == nil {
			return f
		}
	}
	return fallback
}
