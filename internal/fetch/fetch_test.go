package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		RetryCount:   2,
		RetryWaitMin: 10 * time.Millisecond,
		RetryWaitMax: 50 * time.Millisecond,
	}
}

func TestGetHTMLSendsIdentifyingHeaders(t *testing.T) {
	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client := NewClient(fastOptions(), testLogger())
	body, err := client.GetHTML(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Contains(t, gotUA, "addgene-scraper/")
	assert.Equal(t, "en", gotLang)
}

func TestGetHTMLRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := NewClient(fastOptions(), testLogger())
	body, err := client.GetHTML(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetHTMLDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(fastOptions(), testLogger())
	_, err := client.GetHTML(context.Background(), server.URL)

	require.Error(t, err)
	var failed *FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Error(), "404")
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestGetHTMLExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(fastOptions(), testLogger())
	_, err := client.GetHTML(context.Background(), server.URL)

	require.Error(t, err)
	var failed *FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, int32(3), calls.Load(), "initial attempt plus two retries")
}

func TestGetHTMLConnectionRefused(t *testing.T) {
	client := NewClient(fastOptions(), testLogger())
	_, err := client.GetHTML(context.Background(), "http://127.0.0.1:1/never")

	require.Error(t, err)
	var failed *FetchFailedError
	require.ErrorAs(t, err, &failed)
	assert.NotNil(t, failed.Unwrap())
}

func TestGetHTMLContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(fastOptions(), testLogger())
	_, err := client.GetHTML(ctx, server.URL)
	require.Error(t, err)
}

func TestGetBytes(t *testing.T) {
	payload := []byte("LOCUS       test_plasmid    100 bp")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(fastOptions(), testLogger())
	body, err := client.GetBytes(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, payload, body)
}
