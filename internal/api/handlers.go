package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/plasmidtools/addgene-scraper/internal/bridge"
	"github.com/plasmidtools/addgene-scraper/internal/engine"
	"github.com/plasmidtools/addgene-scraper/internal/fetch"
	"github.com/plasmidtools/addgene-scraper/internal/filters"
	"github.com/plasmidtools/addgene-scraper/internal/models"
	"github.com/plasmidtools/addgene-scraper/internal/search"
)

// Catalog is the crawl-backed search surface, implemented by the bridge.
type Catalog interface {
	Search(ctx context.Context, req engine.SearchRequest) (*models.SearchResult, error)
	SequenceInfo(ctx context.Context, plasmidID int, format models.SequenceFormat) (*models.SequenceDownloadInfo, error)
}

// SequenceDownloader transfers sequence files to disk.
type SequenceDownloader interface {
	Download(ctx context.Context, plasmidID int, format models.SequenceFormat, destDir string) models.DownloadResult
}

type Handlers struct {
	catalog     Catalog
	downloader  SequenceDownloader
	downloadDir string
	logger      *slog.Logger
}

func NewHandlers(catalog Catalog, downloader SequenceDownloader, downloadDir string, logger *slog.Logger) *Handlers {
	return &Handlers{
		catalog:     catalog,
		downloader:  downloader,
		downloadDir: downloadDir,
		logger:      logger,
	}
}

// SearchPlasmids handles GET /plasmids/search. Query text, pagination and
// the seven filter tokens all come in as query parameters; unknown filter
// tokens are rejected before any crawl starts.
func (h *Handlers) SearchPlasmids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := engine.SearchRequest{
		Query:      q.Get("q"),
		PageSize:   intParam(q.Get("page_size"), search.MaxPageSize),
		PageNumber: intParam(q.Get("page_number"), 1),
		Filters: filters.Set{
			Expression:          q.Get("expression"),
			VectorTypes:         q.Get("vector_types"),
			Species:             q.Get("species"),
			PlasmidType:         q.Get("plasmid_type"),
			ResistanceMarker:    q.Get("resistance_marker"),
			BacterialResistance: q.Get("bacterial_resistance"),
			Popularity:          q.Get("popularity"),
		},
	}

	result, err := h.catalog.Search(r.Context(), req)
	if err != nil {
		h.respondSearchError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// PopularPlasmids handles GET /plasmids/popular: first page of the
// high-popularity facet, no free-text query.
func (h *Handlers) PopularPlasmids(w http.ResponseWriter, r *http.Request) {
	req := engine.SearchRequest{
		PageSize:   intParam(r.URL.Query().Get("page_size"), 20),
		PageNumber: 1,
		Filters:    filters.Set{Popularity: "high"},
	}

	result, err := h.catalog.Search(r.Context(), req)
	if err != nil {
		h.respondSearchError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetSequenceInfo handles GET /plasmids/{plasmidID}/sequence-info.
func (h *Handlers) GetSequenceInfo(w http.ResponseWriter, r *http.Request) {
	plasmidID, format, ok := h.sequenceParams(w, r)
	if !ok {
		return
	}

	info, err := h.catalog.SequenceInfo(r.Context(), plasmidID, format)
	if err != nil {
		h.respondSearchError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, info)
}

// DownloadRequest is the body of POST /plasmids/{plasmidID}/download.
type DownloadRequest struct {
	Format    string `json:"format"`
	Directory string `json:"directory,omitempty"`
}

// DownloadSequence handles POST /plasmids/{plasmidID}/download. The
// response is always a DownloadResult; failures come back with
// success=false and a message rather than an error status.
func (h *Handlers) DownloadSequence(w http.ResponseWriter, r *http.Request) {
	plasmidID, err := strconv.Atoi(chi.URLParam(r, "plasmidID"))
	if err != nil || plasmidID <= 0 {
		h.respondError(w, http.StatusBadRequest, "plasmid id must be a positive integer")
		return
	}

	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	format, err := models.ParseSequenceFormat(req.Format)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dir := req.Directory
	if dir == "" {
		dir = h.downloadDir
	}

	result := h.downloader.Download(r.Context(), plasmidID, format, dir)
	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) sequenceParams(w http.ResponseWriter, r *http.Request) (int, models.SequenceFormat, bool) {
	plasmidID, err := strconv.Atoi(chi.URLParam(r, "plasmidID"))
	if err != nil || plasmidID <= 0 {
		h.respondError(w, http.StatusBadRequest, "plasmid id must be a positive integer")
		return 0, "", false
	}

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(models.FormatSnapGene)
	}
	format, err := models.ParseSequenceFormat(formatParam)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return 0, "", false
	}

	return plasmidID, format, true
}

// statusClientClosedRequest is the nginx convention for a caller that
// disconnected before the response was ready.
const statusClientClosedRequest = 499

// respondSearchError maps crawl failures onto HTTP statuses: caller
// mistakes are 400, timeouts 504, upstream fetch/extraction trouble 502,
// abnormal engine termination 500. Cancellation is kept apart from caller
// mistakes so a dropped connection never shows up as a 400 in the logs.
func (h *Handlers) respondSearchError(w http.ResponseWriter, err error) {
	var unknownToken *filters.UnknownTokenError
	var fetchFailed *fetch.FetchFailedError
	var engineErr *bridge.EngineError

	switch {
	case errors.As(err, &unknownToken):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, bridge.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		h.respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled):
		h.respondError(w, statusClientClosedRequest, err.Error())
	case errors.As(err, &fetchFailed), errors.Is(err, engine.ErrEmptyResult):
		h.respondError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &engineErr):
		h.logger.Error("crawl engine failure", "error", err)
		h.respondError(w, http.StatusInternalServerError, err.Error())
	default:
		h.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return def
}
