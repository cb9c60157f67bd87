package calendar

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/fattura-app/fattura/internal/platform/httpx"
)

type memEventRepo struct {
	nextID int64
	events map[int64]*Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: map[int64]*Event{}}
}

func (m *memEventRepo) ListEvents(_ context.Context, from, to time.Time) ([]Event, error) {
	var out []Event
	for _, e := range m.events {
		if !from.IsZero() && e.EndsAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.StartsAt.Before(to) {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memEventRepo) GetEvent(_ context.Context, id int64) (*Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memEventRepo) InsertEvent(_ context.Context, e *Event) (int64, error) {
	m.nextID++
	copied := *e
	copied.ID = m.nextID
	m.events[copied.ID] = &copied
	return copied.ID, nil
}

func (m *memEventRepo) UpdateEvent(_ context.Context, e *Event) error {
	if _, ok := m.events[e.ID]; !ok {
		return httpx.ErrNotFound
	}
	copied := *e
	m.events[e.ID] = &copied
	return nil
}

func (m *memEventRepo) DeleteEvent(_ context.Context, id int64) error {
	if _, ok := m.events[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func newTestRouter(repo RepositoryPort) http.Handler {
	r := chi.NewRouter()
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	r.Route("/calendar", h.MountRoutes)
	return r
}

func TestEventCreateAndRangeQuery(t *testing.T) {
	router := newTestRouter(newMemEventRepo())

	for _, body := range []string{
		`{"title":"kickoff","starts_at":"2024-05-01T10:00:00Z","ends_at":"2024-05-01T11:00:00Z"}`,
		`{"title":"review","starts_at":"2024-06-15","ends_at":"2024-06-15"}`,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calendar/", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/?from=2024-05-01&to=2024-06-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	require.Equal(t, "kickoff", events[0].Title)
}

func TestEventValidation(t *testing.T) {
	router := newTestRouter(newMemEventRepo())

	for _, body := range []string{
		`{"title":"","starts_at":"2024-05-01","ends_at":"2024-05-02"}`,
		`{"title":"x","starts_at":"not-a-date","ends_at":"2024-05-02"}`,
		`{"title":"x","starts_at":"2024-05-02","ends_at":"2024-05-01"}`,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/calendar/", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestEventNotFound(t *testing.T) {
	router := newTestRouter(newMemEventRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
