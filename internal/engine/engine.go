package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/plasmidtools/addgene-scraper/internal/extract"
	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/filters"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/ratelimit"
	"github.com/plasmidtools/addgene-scraper/internal/search"
	"github.com/plasmidtools/addgene-scraper/internal/sequences"
)

var (
	// ErrEngineReused is returned when a second crawl is attempted on an
	// engine instance. Engines are single-use, run-to-completion.
	ErrEngineReused = errors.New("crawl engine instance already used")

	// ErrEmptyResult means the crawl completed but extracted nothing even
	// though the page reported a nonzero total. A true zero-results search
	// (reported total of zero) is a success, not this error.
	ErrEmptyResult = errors.New("crawl yielded no entries despite a nonzero reported total")
)

// Engine executes exactly one crawl: a search-page walk or a sequence-info
// lookup. It owns no shared state besides the limiter the caller injects;
// run it through the bridge, which guarantees one active engine per
// process.
type Engine struct {
	fetcher  *fetch.Client
	parser   *extract.Parser
	resolver *sequences.Resolver
	limiter  ratelimit.Limiter
	baseURL  string
	logger   *slog.Logger
	used     atomic.Bool
}

type Config struct {
	BaseURL string
	Fetcher *fetch.Client
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
}

func New(cfg Config) (*Engine, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = search.DefaultBaseURL
	}
	parser, err := extract.NewParser(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Engine{
		fetcher:  cfg.Fetcher,
		parser:   parser,
		resolver: sequences.NewResolver(cfg.Fetcher, cfg.BaseURL, cfg.Logger),
		limiter:  cfg.Limiter,
		baseURL:  cfg.BaseURL,
		logger:   cfg.Logger,
	}, nil
}

// SearchRequest is one page worth of search: free text, pagination and
// filter tokens.
type SearchRequest struct {
	Query      string
	PageSize   int
	PageNumber int
	Filters    filters.Set
}

// Search fetches one results page and assembles the envelope: entries in
// source order, the page-level reported total, and the pagination the
// caller asked for. The reported total is passed through untouched even
// when it disagrees with the number of entries on the page.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*models.SearchResult, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}

	pageURL, err := search.BuildURL(e.baseURL, search.Query{
		Text:       req.Query,
		PageSize:   req.PageSize,
		PageNumber: req.PageNumber,
		Filters:    req.Filters,
	})
	if err != nil {
		return nil, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	html, err := e.fetcher.GetHTML(ctx, pageURL)
	e.record(err)
	if err != nil {
		return nil, err
	}

	page, err := e.parser.ParseResultsPage(html)
	if err != nil {
		return nil, fmt.Errorf("failed to extract results page: %w", err)
	}

	plasmids := page.Plasmids
	if len(plasmids) > req.PageSize {
		plasmids = plasmids[:req.PageSize]
	}
	if plasmids == nil {
		plasmids = []models.PlasmidOverview{}
	}

	if len(plasmids) == 0 && page.Total > 0 {
		return nil, ErrEmptyResult
	}

	e.logger.Info("search crawl complete",
		"query", req.Query, "page", req.PageNumber, "entries", len(plasmids), "total", page.Total)

	return &models.SearchResult{
		Plasmids: plasmids,
		Count:    page.Total,
		Query:    req.Query,
		Page:     req.PageNumber,
		PageSize: req.PageSize,
	}, nil
}

// SequenceInfo resolves download availability for one plasmid.
func (e *Engine) SequenceInfo(ctx context.Context, plasmidID int, format models.SequenceFormat) (*models.SequenceDownloadInfo, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	info, err := e.resolver.Resolve(ctx, plasmidID, format)
	e.record(err)
	return info, err
}

func (e *Engine) acquire() error {
	if !e.used.CompareAndSwap(false, true) {
		return ErrEngineReused
	}
	return nil
}

// record feeds fetch outcomes to the limiter when it is adaptive.
func (e *Engine) record(err error) {
	adaptive, ok := e.limiter.(*ratelimit.AdaptiveLimiter)
	if !ok {
		return
	}
	var failed *fetch.FetchFailedError
	if errors.As(err, &failed) {
		adaptive.RecordError()
	} else if err == nil {
		adaptive.RecordSuccess()
	}
}
