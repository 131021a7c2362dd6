package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReading(t *testing.T, ts *testServer, readingType, date, reference, text string) ReadingResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/readings", map[string]any{
		"type":      readingType,
		"date":      date,
		"reference": reference,
		"text":      text,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Create failed: %s", resp.Body.String())

	var reading ReadingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reading))
	return reading
}

func TestCreateAndGetReading(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "gospel", created.Type)
	assert.False(t, created.HasTiming)

	resp := ts.api.Get("/api/v1/readings/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched ReadingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Jn 1:1-5", fetched.Reference)
	assert.Equal(t, "In the beginning was the Word", fetched.Text)
}

func TestGetReadingNotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/readings/read_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateReadingInvalidType(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/readings", map[string]any{
		"type":      "homily",
		"date":      "2026-08-30",
		"reference": "n/a",
		"text":      "some text",
	})
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)
}

func TestListReadingsPagination(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	dates := []string{"2026-08-25", "2026-08-26", "2026-08-27"}
	for _, d := range dates {
		createTestReading(t, ts, "gospel", d, "Mk 1:1", "The beginning of the gospel")
	}

	resp := ts.api.Get("/api/v1/readings?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var page ListReadingsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
	assert.Len(t, page.Readings, 2)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextCursor)

	resp = ts.api.Get("/api/v1/readings?limit=2&cursor=" + page.NextCursor)
	require.Equal(t, http.StatusOK, resp.Code)

	var second ListReadingsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	assert.Len(t, second.Readings, 1)
	assert.False(t, second.HasMore)
}

func TestGetReadingsForDate(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	// Created out of liturgical order on purpose.
	createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	createTestReading(t, ts, "first", "2026-08-30", "Gn 1:1", "In the beginning God created")
	createTestReading(t, ts, "psalm", "2026-08-29", "Ps 23:1", "The Lord is my shepherd")

	resp := ts.api.Get("/api/v1/readings/date/2026-08-30")
	require.Equal(t, http.StatusOK, resp.Code)

	var body ReadingsForDateResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Readings, 2)
	assert.Equal(t, "first", body.Readings[0].Type)
	assert.Equal(t, "gospel", body.Readings[1].Type)
}

func TestUpdateReading(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "psalm", "2026-08-30", "Ps 23:1-6", "The Lord is my shepherd")

	resp := ts.api.Patch("/api/v1/readings/"+created.ID, map[string]any{
		"title": "Responsorial Psalm",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated ReadingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "Responsorial Psalm", updated.Title)
	assert.Equal(t, "Ps 23:1-6", updated.Reference)
}

func TestDeleteReading(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "first", "2026-08-30", "Gn 1:1-10", "In the beginning God created")

	resp := ts.api.Delete("/api/v1/readings/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/readings/" + created.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSearchReadings(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	createTestReading(t, ts, "psalm", "2026-08-30", "Ps 23:1-6", "The Lord is my shepherd I shall not want")

	resp := ts.api.Get("/api/v1/search?q=shepherd")
	require.Equal(t, http.StatusOK, resp.Code)

	var result SearchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Ps 23:1-6", result.Hits[0].Reference)
}

func TestCleanupReadings(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	old := createTestReading(t, ts, "gospel", "2026-07-01", "Mt 5:1-12", "Blessed are the poor in spirit")
	kept := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")

	resp := ts.api.Post("/api/v1/admin/readings/cleanup", map[string]any{
		"before": "2026-08-01",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body CleanupReadingsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Deleted)
	assert.Equal(t, "2026-08-01", body.Before)

	resp = ts.api.Get("/api/v1/readings/" + old.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/readings/" + kept.ID)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCleanupReadings_RejectsBadCutoff(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Post("/api/v1/admin/readings/cleanup", map[string]any{
		"before": "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRebuildSearchIndex(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	createTestReading(t, ts, "first", "2026-08-30", "Gn 1:1", "In the beginning God created")

	resp := ts.api.Post("/api/v1/admin/search/rebuild")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body RebuildSearchIndexResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Indexed)
}
