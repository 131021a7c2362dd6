package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string   // User's search query
	Types []string // Reading types to include (empty = all)

	// Filters
	Date        string // Filter by exact liturgical date (YYYY-MM-DD)
	MinDuration int64  // Minimum audio duration in ms
	MaxDuration int64  // Maximum audio duration in ms

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "reference", "date", "recent", "duration"
	SortOrder string // "asc", "desc"

	// Options
	IncludeFacets bool // Include reading type facet counts
	Highlight     bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		Offset:        0,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Score      float64           `json:"score"`
	Reference  string            `json:"reference"`
	Title      string            `json:"title,omitempty"`
	Date       string            `json:"date,omitempty"`
	Duration   int64             `json:"duration,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Types []FacetCount `json:"types,omitempty"`
	Dates []FacetCount `json:"dates,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("type", bleve.NewFacetRequest("type", 4))
		searchRequest.AddFacet("date", bleve.NewFacetRequest("date", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("reference")
		searchRequest.Highlight.AddField("text")
	}

	searchRequest.Fields = []string{
		"id", "type", "reference", "title", "date", "duration",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = t
		}
		if ref, ok := hit.Fields["reference"].(string); ok {
			searchHit.Reference = ref
		}
		if title, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = title
		}
		if date, ok := hit.Fields["date"].(string); ok {
			searchHit.Date = date
		}
		if d, ok := hit.Fields["duration"].(float64); ok {
			searchHit.Duration = int64(d)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(searchResult)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query. References rank highest, passage text matches
	// follow, and a fuzzy reference match catches typos like "Jhn 1".
	if params.Query != "" {
		textQueries := []query.Query{}

		refMatch := bleve.NewMatchQuery(params.Query)
		refMatch.SetField("reference")
		refMatch.SetBoost(3.0)
		textQueries = append(textQueries, refMatch)

		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)
		textQueries = append(textQueries, titleMatch)

		textMatch := bleve.NewMatchQuery(params.Query)
		textMatch.SetField("text")
		textMatch.SetBoost(1.0)
		textQueries = append(textQueries, textMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("reference")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("reference")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Reading type filter
	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	// Exact date filter
	if params.Date != "" {
		dq := bleve.NewTermQuery(params.Date)
		dq.SetField("date")
		queries = append(queries, dq)
	}

	// Duration range filter
	if params.MinDuration > 0 || params.MaxDuration > 0 {
		min := float64(params.MinDuration)
		max := float64(params.MaxDuration)
		if params.MaxDuration == 0 {
			max = math.MaxFloat64
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("duration")
		queries = append(queries, rangeQuery)
	}

	// Combine all queries with AND
	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "reference":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-reference"})
		} else {
			req.SortBy([]string{"reference"})
		}
	case "date":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"date"})
		} else {
			req.SortBy([]string{"-date"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "duration":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"duration"})
		} else {
			req.SortBy([]string{"-duration"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}

// extractFacets converts Bleve facets to our format.
func extractFacets(result *bleve.SearchResult) SearchFacets {
	facets := SearchFacets{}

	if typeFacet, ok := result.Facets["type"]; ok {
		for _, term := range typeFacet.Terms.Terms() {
			facets.Types = append(facets.Types, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	if dateFacet, ok := result.Facets["date"]; ok {
		for _, term := range dateFacet.Terms.Terms() {
			facets.Dates = append(facets.Dates, FacetCount{
				Value: term.Term,
				Count: term.Count,
			})
		}
	}

	return facets
}
