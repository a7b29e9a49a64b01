package scraper

import (
	"context"
	"log/slog"

	"github.com/plasmidtools/addgene-scraper/internal/bridge"
	"github.com/plasmidtools/addgene-scraper/internal/config"
	"github.com/plasmidtools/addgene-scraper/internal/engine"
	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/ratelimit"
	"github.com/plasmidtools/addgene-scraper/internal/sequences"
)

// Service wires the fetcher, rate limiter, isolation bridge and downloader
// into one entry point for the server and the CLI. All crawling goes
// through the bridge; downloads bypass it since a file transfer is a plain
// GET, not a crawl.
type Service struct {
	bridge     *bridge.Bridge
	downloader *sequences.Downloader
	logger     *slog.Logger
}

func NewService(cfg config.ScraperConfig, logger *slog.Logger) *Service {
	fetcher := fetch.NewClient(fetch.Options{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.FetchTimeout,
		RetryCount:   cfg.MaxRetries,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
	}, logger)

	// One limiter shared across engine instances keeps the politeness
	// delay meaningful even though every crawl gets a fresh engine.
	limiter := ratelimit.NewAdaptiveLimiter(cfg.RateLimitMin, cfg.RateLimitMax)

	newEngine := func() (*engine.Engine, error) {
		return engine.New(engine.Config{
			BaseURL: cfg.BaseURL,
			Fetcher: fetcher,
			Limiter: limiter,
			Logger:  logger,
		})
	}

	resolver := sequences.NewResolver(fetcher, cfg.BaseURL, logger)

	return &Service{
		bridge:     bridge.New(newEngine, cfg.CrawlTimeout, logger),
		downloader: sequences.NewDownloader(resolver, fetcher, logger),
		logger:     logger,
	}
}

// Search runs a one-page plasmid search through the isolation bridge.
func (s *Service) Search(ctx context.Context, req engine.SearchRequest) (*models.SearchResult, error) {
	return s.bridge.Search(ctx, req)
}

// SequenceInfo resolves sequence download availability through the bridge.
func (s *Service) SequenceInfo(ctx context.Context, plasmidID int, format models.SequenceFormat) (*models.SequenceDownloadInfo, error) {
	return s.bridge.SequenceInfo(ctx, plasmidID, format)
}

// Download transfers a sequence file to destDir. Always returns a result;
// failures are carried inside it.
func (s *Service) Download(ctx context.Context, plasmidID int, format models.SequenceFormat, destDir string) models.DownloadResult {
	return s.downloader.Download(ctx, plasmidID, format, destDir)
}
