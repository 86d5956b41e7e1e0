// Package search implements the hybrid retrieval core: keyword and semantic
// engines, score fusion, and the request-facing service facade.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/embeddings"
	"github.com/esmlabs/extended-memory/internal/metrics"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	searchLogTimeout = 3 * time.Second
)

// Service is the search facade the API layer calls. One instance serves all
// requests; it holds no per-request state.
type Service struct {
	store   store.Store
	gateway *embeddings.Gateway
	sims    *SimilarityCache
	metrics *metrics.SearchMetrics
	timeout time.Duration
	log     zerolog.Logger
}

// NewService wires the search core. metrics may be nil; sims may be nil to
// disable similarity caching.
func NewService(st store.Store, gw *embeddings.Gateway, sims *SimilarityCache, m *metrics.SearchMetrics, timeout time.Duration, log zerolog.Logger) *Service {
	return &Service{
		store:   st,
		gateway: gw,
		sims:    sims,
		metrics: m,
		timeout: timeout,
		log:     log.With().Str("component", "search").Logger(),
	}
}

// Search validates the request, dispatches to the requested engine, and
// records the outcome. Validation failures are reported before any engine
// runs.
func (s *Service) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	if err := normalizeRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var (
		results []model.SearchResult
		err     error
	)
	switch req.SearchType {
	case model.SearchKeyword:
		results, err = s.keywordSearch(ctx, req)
	case model.SearchSemantic:
		results, err = s.semanticSearch(ctx, req)
	case model.SearchHybrid:
		results, err = s.hybridSearch(ctx, req)
	}
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveFailure(string(req.SearchType))
		return nil, err
	}
	s.metrics.ObserveSearch(string(req.SearchType), elapsed)

	resp := &model.SearchResponse{
		Results:         results,
		TotalCount:      len(results),
		ExecutionTimeMs: float64(elapsed.Microseconds()) / 1000,
		SearchType:      req.SearchType,
		Query:           req.Query,
	}
	s.recordSearch(req, resp)
	return resp, nil
}

// normalizeRequest applies defaults and rejects caller-contract violations.
func normalizeRequest(req *model.SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return validationf("query must not be empty")
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		return validationf("limit must be between 1 and %d, got %d", maxLimit, req.Limit)
	}
	if req.SearchType == "" {
		req.SearchType = model.SearchHybrid
	}
	switch req.SearchType {
	case model.SearchKeyword, model.SearchSemantic, model.SearchHybrid:
	default:
		return validationf("unknown search type %q", req.SearchType)
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateFrom.After(*req.DateTo) {
		return validationf("dateFrom must not be after dateTo")
	}
	return nil
}

// recordSearch writes the analytics log entry off the response path. The
// write gets its own deadline so a slow store cannot delay the caller.
func (s *Service) recordSearch(req *model.SearchRequest, resp *model.SearchResponse) {
	entry := &model.SearchLog{
		Query:           req.Query,
		SearchType:      req.SearchType,
		ResultCount:     resp.TotalCount,
		ExecutionTimeMs: resp.ExecutionTimeMs,
	}
	if req.AssistantID != "" {
		id := req.AssistantID
		entry.AssistantID = &id
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), searchLogTimeout)
		defer cancel()
		if err := s.store.SearchLogs().Record(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("query", entry.Query).Msg("failed to record search log")
		}
	}()
}

