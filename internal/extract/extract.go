package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/plasmidtools/addgene-scraper/internal/models"
)

const (
	resultBlockSelector = "div.search-result-item"
	titleLinkSelector   = "h3.search-result-title span a"
	detailsSelector     = "div.search-result-details"
	fieldLabelSelector  = "span.field-label"
	valueColumnSelector = ".col-xs-10"
	flameSelector       = "span.addgene-flame"

	// Result blocks carry an id attribute like "Plasmids-12345".
	blockIDPrefix = "Plasmids-"

	industryMarker = "Available to industry"
)

// fieldValue is one labeled detail row: the visible text of the value
// column plus the first link inside it, if any.
type fieldValue struct {
	text string
	href string
}

// fieldSetters maps recognized detail-row labels to the PlasmidOverview
// field they populate. Labels outside the table are ignored. Link-bearing
// rows (Article, Map) take the href; everything else takes the text.
var fieldSetters = map[string]func(p *models.PlasmidOverview, v fieldValue){
	"Purpose":     func(p *models.PlasmidOverview, v fieldValue) { p.Purpose = v.text },
	"Depositor":   func(p *models.PlasmidOverview, v fieldValue) { p.Depositor = v.text },
	"Article":     func(p *models.PlasmidOverview, v fieldValue) { p.ArticleURL = v.href },
	"Insert":      func(p *models.PlasmidOverview, v fieldValue) { p.Insert = v.text },
	"Tags":        func(p *models.PlasmidOverview, v fieldValue) { p.Tags = v.text },
	"Mutation":    func(p *models.PlasmidOverview, v fieldValue) { p.Mutation = v.text },
	"Type":        func(p *models.PlasmidOverview, v fieldValue) { p.PlasmidType = v.text },
	"Vector type": func(p *models.PlasmidOverview, v fieldValue) { p.VectorType = v.text },
	"Expression":  func(p *models.PlasmidOverview, v fieldValue) { p.Expression = splitList(v.text) },
	"Promoter":    func(p *models.PlasmidOverview, v fieldValue) { p.Promoter = v.text },
	"Map":         func(p *models.PlasmidOverview, v fieldValue) { p.MapURL = v.href },
	"Services":    func(p *models.PlasmidOverview, v fieldValue) { p.Services = v.text },
}

// flamePopularity maps the flame icon's CSS class suffix to a popularity
// level. A missing icon leaves popularity unset.
var flamePopularity = map[string]string{
	"addgene-flame-high":   "high",
	"addgene-flame-medium": "medium",
	"addgene-flame-low":    "low",
}

var resultsCountPattern = regexp.MustCompile(`([\d,]+)\s+results?`)

// Page is one parsed results page: the entries in source order plus the
// total the page itself reports.
type Page struct {
	Plasmids []models.PlasmidOverview
	Total    int
}

// Parser turns raw search-page HTML into plasmid records. baseURL is used
// to absolutize relative links.
type Parser struct {
	baseURL *url.URL
}

func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Parser{baseURL: u}, nil
}

// ParseResultsPage extracts every result block on the page. Blocks are
// processed independently: one malformed block is skipped without
// affecting the rest. Only an unparsable id or a missing title link drops
// a block; every other field degrades to its zero value.
func (p *Parser) ParseResultsPage(html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{Total: p.parseTotalCount(doc)}

	doc.Find(resultBlockSelector).Each(func(i int, block *goquery.Selection) {
		plasmid, ok := p.parseBlock(block)
		if !ok {
			return
		}
		page.Plasmids = append(page.Plasmids, plasmid)
	})

	return page, nil
}

func (p *Parser) parseBlock(block *goquery.Selection) (models.PlasmidOverview, bool) {
	var plasmid models.PlasmidOverview

	id, ok := parseBlockID(block.AttrOr("id", ""))
	if !ok {
		return plasmid, false
	}
	plasmid.ID = id

	titleLink := block.Find(titleLinkSelector).First()
	name := strings.TrimSpace(titleLink.Text())
	if titleLink.Length() == 0 || name == "" {
		return plasmid, false
	}
	plasmid.Name = name

	block.Find(detailsSelector).Find(fieldLabelSelector).Each(func(i int, label *goquery.Selection) {
		key := strings.TrimSuffix(strings.TrimSpace(label.Text()), ":")
		setter, ok := fieldSetters[key]
		if !ok {
			return
		}
		valueCol := label.Parent().Parent().Find(valueColumnSelector).First()
		if valueCol.Length() == 0 {
			return
		}
		v := fieldValue{text: collapseWhitespace(valueCol.Text())}
		if href, exists := valueCol.Find("a").First().Attr("href"); exists {
			v.href = p.absoluteURL(href)
		}
		setter(&plasmid, v)
	})

	if class, exists := block.Find(flameSelector).First().Attr("class"); exists {
		for _, c := range strings.Fields(class) {
			if level, ok := flamePopularity[c]; ok {
				plasmid.Popularity = level
				break
			}
		}
	}

	plasmid.IsIndustry = strings.Contains(block.Text(), industryMarker)

	return plasmid, true
}

// parseBlockID strips the known prefix from a block's id attribute and
// parses the remaining digits. Anything that does not come out as a
// positive integer fails the block.
func parseBlockID(attr string) (int, bool) {
	if !strings.HasPrefix(attr, blockIDPrefix) {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimPrefix(attr, blockIDPrefix))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseTotalCount reads the page-level results counter. The total is what
// the source states, never a sum over blocks; 0 means the counter was
// absent or the page reported none.
func (p *Parser) parseTotalCount(doc *goquery.Document) int {
	text := doc.Find("span.results-count").First().Text()
	if text == "" {
		text = doc.Find("div.search-results-header").First().Text()
	}
	m := resultsCountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func (p *Parser) absoluteURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(ref).String()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
