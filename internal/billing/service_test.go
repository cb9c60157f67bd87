package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fattura-app/fattura/internal/bank"
	"github.com/fattura-app/fattura/internal/clients"
	"github.com/fattura-app/fattura/internal/platform/httpx"
	"github.com/fattura-app/fattura/internal/qrbill"
	"github.com/fattura-app/fattura/internal/templates"
)

type memInvoiceRepo struct {
	mu       sync.Mutex
	nextID   int64
	invoices map[int64]*Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{invoices: map[int64]*Invoice{}}
}

func (m *memInvoiceRepo) NumberExists(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *memInvoiceRepo) ListInvoices(context.Context) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (m *memInvoiceRepo) GetInvoice(_ context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (m *memInvoiceRepo) InsertInvoice(_ context.Context, inv *Invoice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invoices {
		if existing.Number == inv.Number {
			return 0, ErrNumberTaken
		}
	}
	m.nextID++
	copied := *inv
	copied.ID = m.nextID
	m.invoices[copied.ID] = &copied
	return copied.ID, nil
}

func (m *memInvoiceRepo) UpdateInvoice(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[inv.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	number, status := stored.Number, stored.Status
	sent, paid := stored.SentDate, stored.PaidDate
	copied := *inv
	copied.Number, copied.Status = number, status
	copied.SentDate, copied.PaidDate = sent, paid
	m.invoices[inv.ID] = &copied
	return nil
}

func (m *memInvoiceRepo) MarkSent(_ context.Context, id int64, date time.Time) error {
	return m.setStatus(id, StatusSent, &date, nil)
}

func (m *memInvoiceRepo) MarkPaid(_ context.Context, id int64, date time.Time) error {
	return m.setStatus(id, StatusPaid, nil, &date)
}

func (m *memInvoiceRepo) setStatus(id int64, status Status, sent, paid *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	inv.Status = status
	if sent != nil {
		inv.SentDate = sent
	}
	if paid != nil {
		inv.PaidDate = paid
	}
	return nil
}

func (m *memInvoiceRepo) DeleteInvoice(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

type stubClients struct{ client *clients.Client }

func (s stubClients) GetClient(_ context.Context, id int64) (*clients.Client, error) {
	if s.client == nil || s.client.ID != id {
		return nil, httpx.ErrNotFound
	}
	return s.client, nil
}

type stubTemplates struct{ tpl *templates.Template }

func (s stubTemplates) GetTemplate(_ context.Context, id int64) (*templates.Template, error) {
	if s.tpl == nil || s.tpl.ID != id {
		return nil, httpx.ErrNotFound
	}
	return s.tpl, nil
}

type stubBank struct{ profile *bank.Profile }

func (s stubBank) GetProfile(context.Context) (*bank.Profile, error) {
	if s.profile == nil {
		return nil, httpx.ErrNotFound
	}
	return s.profile, nil
}

type fakePDF struct {
	mu     sync.Mutex
	html   string
	assets map[string][]byte
}

func (f *fakePDF) RenderDocument(_ context.Context, html string, assets map[string][]byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.html = html
	f.assets = assets
	return []byte("%PDF-1.4 fake"), nil
}

type recordingNotifier struct {
	number string
	amount float64
}

func (n *recordingNotifier) InvoicePaid(_ context.Context, number string, amount float64) error {
	n.number = number
	n.amount = amount
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memInvoiceRepo
	artifacts *DiskArtifacts
	pdf       *fakePDF
	notifier  *recordingNotifier
	slips     *slipRecorder
}

// slipRecorder captures every slip request on its way to the real
// generator.
type slipRecorder struct {
	mu   sync.Mutex
	reqs []qrbill.Request
}

func (r *slipRecorder) generate(req qrbill.Request, outputDir string) (string, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	return qrbill.Generate(req, outputDir)
}

func (r *slipRecorder) last(t *testing.T) qrbill.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.reqs)
	return r.reqs[len(r.reqs)-1]
}

func testClient() *clients.Client {
	return &clients.Client{
		ID:      1,
		Name:    "Acme AG",
		Address: "Musterstrasse 1",
		Cap:     "3000",
		City:    "Bern",
		Nation:  "CH",
		Email:   "billing@acme.test",
	}
}

func testProfile() *bank.Profile {
	return &bank.Profile{
		IBAN:            "CH5800791123000889012",
		CreditorName:    "My Company AG",
		CreditorStreet:  "My Street 1",
		CreditorPostal:  "8000",
		CreditorCity:    "Zurich",
		CreditorCountry: "CH",
	}
}

func newFixture(t *testing.T, client *clients.Client) *fixture {
	t.Helper()

	files := templates.NewDiskStore(t.TempDir())
	require.NoError(t, files.WriteFile("tpl-1", "invoice.html",
		[]byte(`<html><head><link rel="stylesheet" href="style.css"></head>`+
			`<body>{{ logo }}<h1>Invoice {{ invoice_number }}</h1>`+
			`<p>{{ client.name }}, {{ client.formatted_city }}</p>`+
			`<i>{{ client.country }}</i>`+
			`<p>{{ invoice_date }}</p>`+
			`<td>{{ items.0.description }}</td><td>{{ items.0.total }}</td>`+
			`<b>{{ total }}</b>{{ qr_image }}</body></html>`)))
	require.NoError(t, files.WriteFile("tpl-1", "style.css", []byte("body { margin: 0 }")))

	artifacts, err := NewDiskArtifacts(t.TempDir())
	require.NoError(t, err)

	repo := newMemInvoiceRepo()
	pdf := &fakePDF{}
	notifier := &recordingNotifier{}
	slips := &slipRecorder{}
	svc := NewService(Params{
		Repo:      repo,
		Clients:   stubClients{client: client},
		Templates: stubTemplates{tpl: &templates.Template{
			ID: 1, Name: "default", Dir: "tpl-1",
			MarkupFile: "invoice.html", StylesheetFile: "style.css",
		}},
		Bank:          stubBank{profile: testProfile()},
		TemplateFiles: files,
		Artifacts:     artifacts,
		PDF:           pdf,
		Slip:          slips.generate,
		Notifier:      notifier,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		HomeCountry:   "CH",
	})
	return &fixture{svc: svc, repo: repo, artifacts: artifacts, pdf: pdf, notifier: notifier, slips: slips}
}

func payload(t *testing.T, v map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestGenerateAssemblesDocuments(t *testing.T) {
	f := newFixture(t, testClient())

	inv, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"date": "2024-03-05",
			"items": []map[string]any{
				{"description": "Consulting", "price": 100, "qty": 2},
			},
		}),
	})
	require.NoError(t, err)
	require.Len(t, inv.Number, 8)
	require.Equal(t, StatusDraft, inv.Status)
	require.InEpsilon(t, 200.0, inv.TotalAmount, 1e-9)

	html, err := f.artifacts.Read(inv.ID, RenderedFileName)
	require.NoError(t, err)
	doc := string(html)
	require.Contains(t, doc, "Invoice "+inv.Number)
	require.Contains(t, doc, "Acme AG, Bern, 3000")
	require.Contains(t, doc, "05.03.2024")
	require.Contains(t, doc, "<td>Consulting</td><td>200.00</td>")
	require.Contains(t, doc, "<b>200.00</b>")
	require.Contains(t, doc, `<img src="qr_bill.svg"`)

	require.True(t, f.artifacts.Exists(inv.ID, qrbill.SlipFileName))
	require.True(t, f.artifacts.Exists(inv.ID, "style.css"))
	require.True(t, f.artifacts.Exists(inv.ID, PDFFileName))

	require.Contains(t, f.pdf.assets, "style.css")
	require.Contains(t, f.pdf.assets, qrbill.SlipFileName)
}

func TestGenerateSkipsSlipOnIncompleteDebtor(t *testing.T) {
	client := testClient()
	client.Address = ""
	f := newFixture(t, client)

	inv, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 50, "qty": 1}},
		}),
	})
	require.NoError(t, err)
	require.False(t, f.artifacts.Exists(inv.ID, qrbill.SlipFileName))

	html, err := f.artifacts.Read(inv.ID, RenderedFileName)
	require.NoError(t, err)
	require.NotContains(t, string(html), "qr_bill.svg")
}

func TestGenerateFallsBackToHomeCountry(t *testing.T) {
	client := testClient()
	client.Nation = ""
	f := newFixture(t, client)

	inv, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 50, "qty": 1}},
		}),
	})
	require.NoError(t, err)

	html, err := f.artifacts.Read(inv.ID, RenderedFileName)
	require.NoError(t, err)
	require.Contains(t, string(html), "<i>CH</i>")
	require.Equal(t, "CH", f.slips.last(t).Debtor.Country)
}

func TestGenerateWithoutDateRendersEmptyDate(t *testing.T) {
	f := newFixture(t, testClient())

	inv, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 50, "qty": 1}},
		}),
	})
	require.NoError(t, err)

	html, err := f.artifacts.Read(inv.ID, RenderedFileName)
	require.NoError(t, err)
	require.Contains(t, string(html), "<p></p>")
}

func TestGenerateSlipCarriesPayloadNotes(t *testing.T) {
	f := newFixture(t, testClient())

	_, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"notes": "Project Phoenix retainer",
			"items": []map[string]any{{"description": "Consulting", "price": 50, "qty": 1}},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "Project Phoenix retainer", f.slips.last(t).AdditionalInfo)

	inv, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 50, "qty": 1}},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, "Invoice "+inv.Number, f.slips.last(t).AdditionalInfo)
}

func TestGenerateRejectsBadItems(t *testing.T) {
	f := newFixture(t, testClient())

	_, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": "abc", "qty": 1}},
		}),
	})
	require.ErrorIs(t, err, httpx.ErrBadInput)
}

func TestRegeneratePreservesNumberAndStatus(t *testing.T) {
	f := newFixture(t, testClient())
	ctx := context.Background()

	inv, err := f.svc.Generate(ctx, GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 100, "qty": 2}},
		}),
	})
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, inv.ID, time.Time{})
	require.NoError(t, err)

	updated, err := f.svc.Regenerate(ctx, inv.ID, GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 150, "qty": 1}},
		}),
	})
	require.NoError(t, err)
	require.Equal(t, inv.Number, updated.Number)
	require.Equal(t, StatusSent, updated.Status)
	require.InEpsilon(t, 150.0, updated.TotalAmount, 1e-9)
}

func TestRegenerateKeepsEarlierLogo(t *testing.T) {
	f := newFixture(t, testClient())
	ctx := context.Background()
	data := payload(t, map[string]any{
		"items": []map[string]any{{"description": "Consulting", "price": 10, "qty": 1}},
	})

	inv, err := f.svc.Generate(ctx, GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data:       data,
		Logo:       &LogoUpload{Filename: "logo.JPG", Data: []byte("jpeg-bytes")},
	})
	require.NoError(t, err)
	require.True(t, f.artifacts.Exists(inv.ID, "uploaded_logo.jpg"))

	_, err = f.svc.Regenerate(ctx, inv.ID, GenerateInput{ClientID: 1, TemplateID: 1, Data: data})
	require.NoError(t, err)

	html, err := f.artifacts.Read(inv.ID, RenderedFileName)
	require.NoError(t, err)
	require.Contains(t, string(html), `<img src="uploaded_logo.jpg"`)
	require.Contains(t, f.pdf.assets, "uploaded_logo.jpg")
}

func TestSendAndPayTransitions(t *testing.T) {
	f := newFixture(t, testClient())
	ctx := context.Background()

	inv, err := f.svc.Generate(ctx, GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 80, "qty": 1}},
		}),
	})
	require.NoError(t, err)

	sent, err := f.svc.Send(ctx, inv.ID, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, StatusSent, sent.Status)
	require.NotNil(t, sent.SentDate)

	paid, err := f.svc.Pay(ctx, inv.ID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	require.Equal(t, inv.Number, f.notifier.number)
	require.InEpsilon(t, 80.0, f.notifier.amount, 1e-9)
}

func TestGenerateUnknownClient(t *testing.T) {
	f := newFixture(t, testClient())

	_, err := f.svc.Generate(context.Background(), GenerateInput{
		ClientID:   99,
		TemplateID: 1,
		Data:       payload(t, map[string]any{"items": []map[string]any{}}),
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteRemovesArtifacts(t *testing.T) {
	f := newFixture(t, testClient())
	ctx := context.Background()

	inv, err := f.svc.Generate(ctx, GenerateInput{
		ClientID:   1,
		TemplateID: 1,
		Data: payload(t, map[string]any{
			"items": []map[string]any{{"description": "Consulting", "price": 10, "qty": 1}},
		}),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteInvoice(ctx, inv.ID))
	require.False(t, f.artifacts.Exists(inv.ID, PDFFileName))
	_, err = f.svc.GetInvoice(ctx, inv.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
