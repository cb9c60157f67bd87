package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderDocumentSendsAssets(t *testing.T) {
	var fileNames []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(8<<20))
		for _, headers := range r.MultipartForm.File {
			for _, h := range headers {
				fileNames = append(fileNames, h.Filename)
			}
		}
		_, _ = w.Write([]byte("%PDF-1.4 fake"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	pdf, err := client.RenderDocument(context.Background(), "<html></html>", map[string][]byte{
		"style.css":   []byte("p {}"),
		"qr_bill.svg": []byte("<svg/>"),
	})
	require.NoError(t, err)
	require.Contains(t, string(pdf), "%PDF")
	require.ElementsMatch(t, []string{"index.html", "style.css", "qr_bill.svg"}, fileNames)
}

func TestRenderDocumentPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<html></html>")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL).Ping(context.Background()))
}
