package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/filters"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/ratelimit"
)

const twoResultsPage = `<html><body>
<span class="results-count">2 results</span>
<div class="search-result-item" id="Plasmids-101">
  <h3 class="search-result-title"><span><a href="/101/">pAlpha</a></span></h3>
</div>
<div class="search-result-item" id="Plasmids-102">
  <h3 class="search-result-title"><span><a href="/102/">pBeta</a></span></h3>
</div>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, baseURL string) *Engine {
	t.Helper()
	fetcher := fetch.NewClient(fetch.Options{
		Timeout:      5 * time.Second,
		RetryCount:   1,
		RetryWaitMin: 10 * time.Millisecond,
		RetryWaitMax: 20 * time.Millisecond,
	}, testLogger())

	eng, err := New(Config{
		BaseURL: baseURL,
		Fetcher: fetcher,
		Limiter: ratelimit.NewSimpleLimiter(0, 0),
		Logger:  testLogger(),
	})
	require.NoError(t, err)
	return eng
}

func TestSearchAssemblesEnvelope(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(twoResultsPage))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)
	result, err := eng.Search(context.Background(), SearchRequest{
		Query:      "pLKO.1",
		PageSize:   10,
		PageNumber: 1,
		Filters:    filters.Set{Expression: "mammalian"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/search/catalog/plasmids/?q=pLKO.1&page_size=10&page_number=1&expression=Mammalian+Expression", gotPath)
	require.Len(t, result.Plasmids, 2)
	assert.Equal(t, "pAlpha", result.Plasmids[0].Name)
	assert.Equal(t, "pBeta", result.Plasmids[1].Name)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "pLKO.1", result.Query)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 10, result.PageSize)
}

func TestSearchEnvelopeNeverExceedsPageSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoResultsPage))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)
	result, err := eng.Search(context.Background(), SearchRequest{PageSize: 1, PageNumber: 1})
	require.NoError(t, err)

	assert.Len(t, result.Plasmids, 1)
	assert.Equal(t, 2, result.Count, "reported total is preserved even when entries are capped")
}

func TestSearchZeroResultsIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="results-count">0 results</span></body></html>`))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)
	result, err := eng.Search(context.Background(), SearchRequest{PageSize: 10, PageNumber: 1})
	require.NoError(t, err)

	assert.Empty(t, result.Plasmids)
	assert.NotNil(t, result.Plasmids, "empty page still serializes as an empty list")
	assert.Zero(t, result.Count)
}

func TestSearchEmptyExtractionWithNonzeroTotal(t *testing.T) {
	// The page claims results but no block survives extraction. That is
	// a crawl problem, not a legitimate empty page.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="results-count">40 results</span></body></html>`))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)
	_, err := eng.Search(context.Background(), SearchRequest{PageSize: 10, PageNumber: 1})
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestSearchRejectsBadInputBeforeFetching(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(twoResultsPage))
	}))
	defer server.Close()

	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"unknown filter token", SearchRequest{PageSize: 10, PageNumber: 1, Filters: filters.Set{Popularity: "viral"}}},
		{"zero page size", SearchRequest{PageSize: 0, PageNumber: 1}},
		{"zero page number", SearchRequest{PageSize: 10, PageNumber: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestEngine(t, server.URL)
			_, err := eng.Search(context.Background(), tt.req)
			require.Error(t, err)
		})
	}

	assert.Zero(t, calls, "malformed input must be rejected before any network call")
}

func TestEngineIsSingleUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoResultsPage))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)

	_, err := eng.Search(context.Background(), SearchRequest{PageSize: 10, PageNumber: 1})
	require.NoError(t, err)

	_, err = eng.Search(context.Background(), SearchRequest{PageSize: 10, PageNumber: 1})
	assert.ErrorIs(t, err, ErrEngineReused)

	_, err = eng.SequenceInfo(context.Background(), 101, models.FormatSnapGene)
	assert.ErrorIs(t, err, ErrEngineReused)
}

func TestSequenceInfoThroughEngine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/101/sequences/", r.URL.Path)
		w.Write([]byte(`<html><body><a href="/sequences/101.dna">Download SnapGene</a></body></html>`))
	}))
	defer server.Close()

	eng := newTestEngine(t, server.URL)
	info, err := eng.SequenceInfo(context.Background(), 101, models.FormatSnapGene)
	require.NoError(t, err)

	assert.True(t, info.Available)
	assert.Equal(t, server.URL+"/sequences/101.dna", info.DownloadURL)
	assert.Equal(t, models.FormatSnapGene, info.Format)
}
