package datalink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ndlsync/pkg/ndlsync"
)

func exportJSON(status, link string) string {
	return fmt.Sprintf(`{"datatable_bulk_download":{"file":{"status":%q,"link":%q,"data_snapshot_time":"2024-01-02 03:04:05 UTC"},"datatable":{"last_refreshed_time":"2024-01-02 00:00:00 UTC"}}}`, status, link)
}

// statusServer answers export requests with statuses in order, repeating the last one.
func statusServer(t *testing.T, statuses ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		assert.Equal(t, "/SF1.json", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("qopts.export"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))

		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		link := ""
		if status != ndlsync.StatusGenerating {
			link = "https://files.example.com/SF1.zip"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, exportJSON(status, link))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, clock clockwork.Clock, maxPolls int) *Client {
	return NewClient(Options{
		BaseURL:      srv.URL,
		APIKey:       "secret",
		PollInterval: time.Minute,
		MaxPolls:     maxPolls,
		Clock:        clock,
		HTTPClient:   srv.Client(),
	})
}

func TestExportLink_ReadyImmediately(t *testing.T) {
	for _, status := range []string{ndlsync.StatusFresh, ndlsync.StatusRegenerating} {
		t.Run(status, func(t *testing.T) {
			srv, calls := statusServer(t, status)
			client := newTestClient(srv, clockwork.NewFakeClock(), 3)

			link, err := client.ExportLink(context.Background(), "SF1")

			require.NoError(t, err)
			assert.Equal(t, "https://files.example.com/SF1.zip", link)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestExportLink_PollsUntilReady(t *testing.T) {
	srv, calls := statusServer(t, "generating", "generating", "fresh")
	clock := clockwork.NewFakeClock()
	client := newTestClient(srv, clock, 10)

	type result struct {
		link string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		link, err := client.ExportLink(context.Background(), "SF1")
		done <- result{link, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Minute)
	}

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "https://files.example.com/SF1.zip", res.link)
	assert.Equal(t, int32(3), calls.Load(), "three polls, two waits")
}

func TestExportLink_ReadinessTimeout(t *testing.T) {
	srv, calls := statusServer(t, "generating")
	client := NewClient(Options{
		BaseURL:      srv.URL,
		APIKey:       "secret",
		PollInterval: time.Millisecond,
		MaxPolls:     3,
		HTTPClient:   srv.Client(),
	})

	_, err := client.ExportLink(context.Background(), "SF1")

	require.ErrorIs(t, err, ndlsync.ErrReadinessTimeout)
	assert.Contains(t, err.Error(), "after 3 polls")
	assert.Equal(t, int32(3), calls.Load())
}

func TestExportLink_StatusErrorsAreFatal(t *testing.T) {
	tests := []struct {
		code    int
		wantErr error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadRequest, ndlsync.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.code)
				fmt.Fprint(w, `{"quandl_error":{"code":"QEAx01","message":"denied"}}`)
			}))
			defer srv.Close()
			client := newTestClient(srv, clockwork.NewFakeClock(), 5)

			_, err := client.ExportLink(context.Background(), "SF1")

			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ndlsync.ErrTransport)
			assert.Contains(t, err.Error(), "QEAx01")
			assert.Equal(t, int32(1), calls.Load(), "HTTP errors must not be retried")
		})
	}
}

func TestExportLink_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()
	client := newTestClient(srv, clockwork.NewFakeClock(), 5)

	_, err := client.ExportLink(context.Background(), "SF1")

	assert.ErrorIs(t, err, ndlsync.ErrTransport)
}

func TestExportLink_MissingStatusIsFatal(t *testing.T) {
	bodies := map[string]string{
		"empty object":  `{}`,
		"no file":       `{"datatable_bulk_download":{}}`,
		"blank status":  `{"datatable_bulk_download":{"file":{"status":"","link":""}}}`,
		"null download": `{"datatable_bulk_download":null}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprint(w, body)
			}))
			defer srv.Close()
			client := newTestClient(srv, clockwork.NewFakeClock(), 5)

			_, err := client.ExportLink(context.Background(), "SF1")

			assert.ErrorIs(t, err, ndlsync.ErrTransport)
			assert.NotErrorIs(t, err, ndlsync.ErrReadinessTimeout)
			assert.Equal(t, int32(1), calls.Load(), "not retried")
		})
	}
}

func TestExportLink_ReadyWithoutLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, exportJSON("fresh", ""))
	}))
	defer srv.Close()
	client := newTestClient(srv, clockwork.NewFakeClock(), 5)

	_, err := client.ExportLink(context.Background(), "SF1")

	assert.ErrorIs(t, err, ndlsync.ErrTransport)
}

func TestExportLink_ValidatesDataset(t *testing.T) {
	client := NewClient(Options{APIKey: "secret"})

	_, err := client.ExportLink(context.Background(), "")
	assert.ErrorIs(t, err, ndlsync.ErrInvalidConfig)

	_, err = client.ExportLink(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ndlsync.ErrUnknownDataset)
}

func TestExportLink_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()
	client := NewClient(Options{BaseURL: base, APIKey: "secret", MaxPolls: 1})

	_, err := client.ExportLink(context.Background(), "SF1")

	require.ErrorIs(t, err, ndlsync.ErrTransport)
	assert.NotContains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.zip" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", "7")
		fmt.Fprint(w, "PK-data")
	}))
	defer srv.Close()
	client := NewClient(Options{HTTPClient: srv.Client()})

	body, size, err := client.Fetch(context.Background(), srv.URL+"/SF1.zip")
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, int64(7), size)
	assert.Equal(t, "PK-data", string(data))

	_, _, err = client.Fetch(context.Background(), srv.URL+"/missing.zip")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedact(t *testing.T) {
	got := redact("https://data.nasdaq.com/api/v3/datatables/SHARADAR/SF1.json?api_key=abc&qopts.export=true")
	assert.False(t, strings.Contains(got, "abc"))
	assert.Contains(t, got, "qopts.export=true")
}
