package sequences

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/search"
)

// Resolver determines whether a sequence file exists for a plasmid and at
// what URL. It is a single-request lookup against the plasmid's sequences
// page, not a crawl, and never transfers the file itself.
type Resolver struct {
	fetcher *fetch.Client
	baseURL string
	logger  *slog.Logger
}

func NewResolver(fetcher *fetch.Client, baseURL string, logger *slog.Logger) *Resolver {
	if baseURL == "" {
		baseURL = search.DefaultBaseURL
	}
	return &Resolver{fetcher: fetcher, baseURL: baseURL, logger: logger}
}

// Resolve fetches the sequences page and looks for a download link in the
// requested format, identified by its file extension. A page without such
// a link yields Available=false, not an error.
func (r *Resolver) Resolve(ctx context.Context, plasmidID int, format models.SequenceFormat) (*models.SequenceDownloadInfo, error) {
	if plasmidID <= 0 {
		return nil, fmt.Errorf("plasmid id must be positive, got %d", plasmidID)
	}
	if format.Extension() == "" {
		return nil, fmt.Errorf("unknown sequence format %q", format)
	}

	pageURL := search.SequencesURL(r.baseURL, plasmidID)
	html, err := r.fetcher.GetHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sequences page: %w", err)
	}

	info := &models.SequenceDownloadInfo{
		PlasmidID: plasmidID,
		Format:    format,
	}

	selector := fmt.Sprintf(`a[href$=".%s"]`, format.Extension())
	if href, exists := doc.Find(selector).First().Attr("href"); exists {
		info.DownloadURL = r.absoluteURL(pageURL, href)
		info.Available = info.DownloadURL != ""
	}

	r.logger.Debug("resolved sequence info",
		"plasmid_id", plasmidID, "format", format, "available", info.Available)
	return info, nil
}

func (r *Resolver) absoluteURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
