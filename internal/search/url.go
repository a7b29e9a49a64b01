package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/plasmidtools/addgene-scraper/internal/filters"
)

const (
	// DefaultBaseURL is the Addgene site root.
	DefaultBaseURL = "https://www.addgene.org"

	// CatalogPath is the plasmid search endpoint under the base URL.
	CatalogPath = "/search/catalog/plasmids/"

	// MaxPageSize is the largest page size the Addgene search endpoint honors.
	MaxPageSize = 50
)

// Query describes one search-page request: optional free text, pagination
// and up to one filter token per category.
type Query struct {
	Text       string
	PageSize   int
	PageNumber int
	Filters    filters.Set
}

// Validate rejects malformed pagination before any URL is built.
func (q Query) Validate() error {
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d, got %d", MaxPageSize, q.PageSize)
	}
	if q.PageNumber < 1 {
		return fmt.Errorf("page_number must be >= 1, got %d", q.PageNumber)
	}
	return nil
}

// BuildURL assembles the absolute search URL for a query against baseURL.
//
// Parameters are appended in a fixed order (q, page_size, page_number, then
// filters in category order) so identical inputs always produce
// byte-identical URLs. An empty query text omits the q parameter entirely;
// Addgene treats that as "browse all".
func BuildURL(baseURL string, q Query) (string, error) {
	if err := q.Validate(); err != nil {
		return "", err
	}
	facets, err := q.Filters.Facets()
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var params []string
	if q.Text != "" {
		params = append(params, "q="+url.QueryEscape(q.Text))
	}
	params = append(params,
		"page_size="+strconv.Itoa(q.PageSize),
		"page_number="+strconv.Itoa(q.PageNumber),
	)
	for _, f := range facets {
		params = append(params, f.Param+"="+url.QueryEscape(f.Label))
	}

	return strings.TrimSuffix(baseURL, "/") + CatalogPath + "?" + strings.Join(params, "&"), nil
}

// SequencesURL returns the absolute URL of a plasmid's sequences page.
func SequencesURL(baseURL string, plasmidID int) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%d/sequences/", strings.TrimSuffix(baseURL, "/"), plasmidID)
}
