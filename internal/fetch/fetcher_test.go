package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, retries int) *Client {
	t.Helper()
	c := New(Config{
		Timeout:         5 * time.Second,
		DownloadTimeout: 5 * time.Second,
		Retries:         retries,
		RetryDelay:      30 * time.Second,
		UserAgent:       "test-agent",
	}, zap.NewNop())
	c.sleep = func(context.Context, time.Duration) {}
	return c
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, 3).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
}

func TestGetRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, 3).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, 3, calls)
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 2).Get(context.Background(), srv.URL)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, 3, calls) // initial attempt plus two retries
}

func TestGetMaintenancePageIsTransient(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("<html>Aplikace je docasne nedostupna</html>"))
			return
		}
		_, _ = w.Write([]byte("real content"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, 3).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "real content", body)
	assert.Equal(t, 2, calls)
}

func TestPostFormSendsValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "vyveseno", r.PostFormValue("order"))
		assert.Equal(t, "25", r.PostFormValue("first"))
		_, _ = w.Write([]byte("page two"))
	}))
	defer srv.Close()

	form := url.Values{"order": {"vyveseno"}, "first": {"25"}}
	body, err := newTestClient(t, 0).PostForm(context.Background(), srv.URL, form)
	require.NoError(t, err)
	assert.Equal(t, "page two", body)
}

func TestDownloadWritesFile(t *testing.T) {
	payload := []byte("%PDF-1.4 fake content")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, newTestClient(t, 0).Download(context.Background(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadHTMLWithDispositionIsSaved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Disposition", `attachment; filename="page.html"`)
		_, _ = w.Write([]byte("<html>exported notice</html>"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, newTestClient(t, 0).Download(context.Background(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<html>exported notice</html>", string(got))
}

func TestDownloadWithdrawnDocumentNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>Dokument jiz neni k dispozici.</html>"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "gone.pdf")
	err := newTestClient(t, 3).Download(context.Background(), srv.URL, dest)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, calls)
	assert.NoFileExists(t, dest)
}

func TestDownloadMaintenancePageRetried(t *testing.T) {
	var calls int
	payload := []byte("binary-ish")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>Service Unavailable</html>"))
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "doc.bin")
	require.NoError(t, newTestClient(t, 1).Download(context.Background(), srv.URL, dest))
	assert.Equal(t, 2, calls)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
