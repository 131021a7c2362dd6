package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadTestTiming loads a six-word timing table for the given reading.
// The offsets index into "In the beginning was the Word".
func uploadTestTiming(t *testing.T, ts *testServer, readingID string) {
	t.Helper()

	words := []map[string]any{
		{"word": "In", "start_ms": 0, "end_ms": 300, "index": 0, "char_offset": 0, "char_length": 2},
		{"word": "the", "start_ms": 340, "end_ms": 600, "index": 1, "char_offset": 3, "char_length": 3},
		{"word": "beginning", "start_ms": 620, "end_ms": 950, "index": 2, "char_offset": 7, "char_length": 9},
		{"word": "was", "start_ms": 1000, "end_ms": 1250, "index": 3, "char_offset": 17, "char_length": 3},
		{"word": "the", "start_ms": 1300, "end_ms": 1500, "index": 4, "char_offset": 21, "char_length": 3},
		{"word": "Word", "start_ms": 1550, "end_ms": 1900, "index": 5, "char_offset": 25, "char_length": 4},
	}

	resp := ts.api.Put("/api/v1/readings/"+readingID+"/timing", map[string]any{
		"reading_id":   readingID,
		"reading_type": "gospel",
		"duration_ms":  2000,
		"words":        words,
	})
	require.Equal(t, http.StatusOK, resp.Code, "Timing upload failed: %s", resp.Body.String())
}

func startTestSession(t *testing.T, ts *testServer, clientID, readingID string) SessionResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/highlight/sessions", map[string]any{
		"client_id":    clientID,
		"reading_id":   readingID,
		"reading_type": "gospel",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Start session failed: %s", resp.Body.String())

	var session SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	return session
}

func TestUploadAndGetTiming(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)

	resp := ts.api.Get("/api/v1/readings/" + created.ID + "/timing/gospel")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		ReadingID string           `json:"reading_id"`
		Words     []map[string]any `json:"words"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, created.ID, body.ReadingID)
	assert.Len(t, body.Words, 6)

	// The reading now reports timing availability.
	resp = ts.api.Get("/api/v1/readings/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var reading ReadingResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reading))
	assert.True(t, reading.HasTiming)
	assert.Equal(t, int64(2000), reading.DurationMs)
}

func TestUploadTimingReadingIDMismatch(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Put("/api/v1/readings/read_a/timing", map[string]any{
		"reading_id":   "read_b",
		"reading_type": "gospel",
		"duration_ms":  1000,
		"words":        []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteTiming(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)

	resp := ts.api.Delete("/api/v1/readings/" + created.ID + "/timing/gospel")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/readings/" + created.ID + "/timing/gospel")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStartSessionAndPushPosition(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)

	session := startTestSession(t, ts, "client-1", created.ID)
	assert.Equal(t, "active", session.State)
	assert.Equal(t, -1, session.CurrentWordIndex)

	resp := ts.api.Post("/api/v1/highlight/sessions/"+session.ID+"/position", map[string]any{
		"position_ms": 700,
		"playing":     true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, 2, updated.CurrentWordIndex)
	require.NotNil(t, updated.CurrentWord)
	assert.Equal(t, "beginning", updated.CurrentWord.Word)
}

func TestStartSessionWithoutTiming(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")

	resp := ts.api.Post("/api/v1/highlight/sessions", map[string]any{
		"client_id":    "client-1",
		"reading_id":   created.ID,
		"reading_type": "gospel",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPauseResumeSeekSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)
	session := startTestSession(t, ts, "client-1", created.ID)

	resp := ts.api.Post("/api/v1/highlight/sessions/" + session.ID + "/pause")
	require.Equal(t, http.StatusOK, resp.Code)

	var paused SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &paused))
	assert.Equal(t, "paused", paused.State)

	resp = ts.api.Post("/api/v1/highlight/sessions/" + session.ID + "/resume")
	require.Equal(t, http.StatusOK, resp.Code)

	var resumed SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &resumed))
	assert.Equal(t, "active", resumed.State)

	resp = ts.api.Post("/api/v1/highlight/sessions/"+session.ID+"/seek", map[string]any{
		"position_ms": 1600,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var sought SessionResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sought))
	assert.Equal(t, 5, sought.CurrentWordIndex)
}

func TestStopSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)
	session := startTestSession(t, ts, "client-1", created.ID)

	resp := ts.api.Delete("/api/v1/highlight/sessions/" + session.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/highlight/sessions/" + session.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSessionOpsUnknownSession(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	assert.Equal(t, http.StatusNotFound, ts.api.Post("/api/v1/highlight/sessions/hl_missing/pause").Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/v1/highlight/sessions/hl_missing").Code)
}

func TestProgressEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)
	session := startTestSession(t, ts, "client-1", created.ID)

	resp := ts.api.Post("/api/v1/highlight/sessions/"+session.ID+"/position", map[string]any{
		"position_ms": 400,
		"playing":     true,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/clients/client-1/progress/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var progress ProgressResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &progress))
	assert.Equal(t, 1, progress.WordIndex)
	assert.Equal(t, int64(400), progress.PositionMs)

	resp = ts.api.Get("/api/v1/clients/client-1/progress")
	require.Equal(t, http.StatusOK, resp.Code)

	var all ClientProgressResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &all))
	assert.Len(t, all.Progress, 1)
}

func TestListeningHistoryEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	created := createTestReading(t, ts, "gospel", "2026-08-30", "Jn 1:1-5", "In the beginning was the Word")
	uploadTestTiming(t, ts, created.ID)
	session := startTestSession(t, ts, "client-1", created.ID)

	resp := ts.api.Post("/api/v1/highlight/sessions/"+session.ID+"/position", map[string]any{
		"position_ms": 1100,
		"playing":     true,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/highlight/sessions/" + session.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/clients/client-1/history")
	require.Equal(t, http.StatusOK, resp.Code)

	var history ListeningHistoryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &history))
	require.Len(t, history.Records, 1)
	assert.False(t, history.Records[0].Completed)
	assert.Equal(t, int64(1100), history.Records[0].ListenTimeMs)
	assert.Equal(t, 1, history.TotalListens)
}
