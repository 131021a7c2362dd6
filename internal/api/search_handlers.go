package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/lectioapp/lectio-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search readings",
		Description: "Full-text search across reading references, titles, and passage text",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching readings.
type SearchInput struct {
	Query       string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Types       string `query:"types" validate:"omitempty,max=100" doc:"Comma-separated reading types (first,psalm,second,gospel). Omit for all."`
	Date        string `query:"date" validate:"omitempty,len=10" doc:"Filter to one liturgical date (YYYY-MM-DD)"`
	MinDuration int64  `query:"min_duration" validate:"omitempty,gte=0" doc:"Minimum narration duration in ms"`
	MaxDuration int64  `query:"max_duration" validate:"omitempty,gte=0" doc:"Maximum narration duration in ms"`
	Limit       int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset      int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	Sort        string `query:"sort" validate:"omitempty,oneof=relevance reference date recent duration" doc:"Sort field (default relevance)"`
	Order       string `query:"order" validate:"omitempty,oneof=asc desc" doc:"Sort order (default desc)"`
	Facets      bool   `query:"facets" doc:"Include facets in response"`
}

// SearchHitResult contains a single matched reading.
type SearchHitResult struct {
	ID         string            `json:"id" doc:"Reading ID"`
	Type       string            `json:"type" doc:"Reading type"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Reference  string            `json:"reference" doc:"Scripture reference"`
	Title      string            `json:"title,omitempty" doc:"Display title"`
	Date       string            `json:"date,omitempty" doc:"Liturgical date"`
	Duration   int64             `json:"duration,omitempty" doc:"Narration duration in ms"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchFacetsResponse contains facet counts for filtering.
type SearchFacetsResponse struct {
	Types []FacetCount `json:"types,omitempty" doc:"Reading type facets"`
	Dates []FacetCount `json:"dates,omitempty" doc:"Date facets"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string                `json:"query" doc:"Original search query"`
	Total  uint64                `json:"total" doc:"Total matches"`
	TookMs int64                 `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult     `json:"hits" doc:"Search results"`
	Facets *SearchFacetsResponse `json:"facets,omitempty" doc:"Facet counts for filtering"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Date = input.Date
	params.MinDuration = input.MinDuration
	params.MaxDuration = input.MaxDuration
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets

	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}
	if input.Order != "" {
		params.SortOrder = input.Order
	}

	// Comma-separated types to slice, unknown entries dropped.
	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			switch t = strings.TrimSpace(t); t {
			case "first", "psalm", "second", "gospel":
				params.Types = append(params.Types, t)
			}
		}
	}

	s.logger.Debug("Search request received",
		"query", input.Query,
		"types", input.Types,
		"limit", params.Limit,
	)

	result, err := s.services.Reading.Search(ctx, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	hits := make([]SearchHitResult, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResult{
			ID:         h.ID,
			Type:       h.Type,
			Score:      h.Score,
			Reference:  h.Reference,
			Title:      h.Title,
			Date:       h.Date,
			Duration:   h.Duration,
			Highlights: h.Highlights,
		}
	}

	resp := SearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   hits,
	}

	if input.Facets {
		resp.Facets = mapSearchFacets(result.Facets)
	}

	return &SearchOutput{Body: resp}, nil
}

func mapSearchFacets(f search.SearchFacets) *SearchFacetsResponse {
	resp := &SearchFacetsResponse{}
	for _, fc := range f.Types {
		resp.Types = append(resp.Types, FacetCount{Value: fc.Value, Count: fc.Count})
	}
	for _, fc := range f.Dates {
		resp.Dates = append(resp.Dates, FacetCount{Value: fc.Value, Count: fc.Count})
	}
	return resp
}
