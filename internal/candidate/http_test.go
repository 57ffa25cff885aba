package candidate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboard(t *testing.T) (*MemoryStore, http.Handler) {
	t.Helper()
	store := NewMemoryStore()
	h := NewHTTPHandler(store, zerolog.New(io.Discard))
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/candidates", h.HandleList)
	mux.HandleFunc("GET /v1/candidates/{id}", h.HandleGet)
	return store, mux
}

func TestHandleListDefaultsToScoreOrder(t *testing.T) {
	ctx := context.Background()
	store, mux := newDashboard(t)

	low, err := store.CreateCandidate(ctx, NewCandidate{Name: "Low", Email: "low@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.SetSummary(ctx, low.ID, "ok", 40))
	high, err := store.CreateCandidate(ctx, NewCandidate{Name: "High", Email: "high@example.com"})
	require.NoError(t, err)
	require.NoError(t, store.SetSummary(ctx, high.ID, "strong", 88))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Candidates []Summary `json:"candidates"`
		Count      int       `json:"count"`
		Sort       string    `json:"sort"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, SortByScore, body.Sort)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "High", body.Candidates[0].Name)
	assert.Equal(t, "Low", body.Candidates[1].Name)
}

func TestHandleListSearchAndLimit(t *testing.T) {
	ctx := context.Background()
	store, mux := newDashboard(t)
	for _, name := range []string{"Ann", "Andy", "Bea"} {
		_, err := store.CreateCandidate(ctx, NewCandidate{Name: name})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates?q=AN&sort=name&limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Candidates []Summary `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Candidates, 1)
	assert.Equal(t, "Andy", body.Candidates[0].Name)
}

func TestHandleListRejectsUnknownSort(t *testing.T) {
	_, mux := newDashboard(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates?sort=age", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_failed")
}

func TestHandleGet(t *testing.T) {
	ctx := context.Background()
	store, mux := newDashboard(t)
	c, err := store.CreateCandidate(ctx, NewCandidate{Name: "Jane Doe"})
	require.NoError(t, err)
	require.NoError(t, store.AppendChatTurn(ctx, c.ID, ChatTurn{Origin: OriginBot, Text: "Hello"}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates/"+c.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Candidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, c.ID, got.ID)
	require.Len(t, got.Chat, 1)
	assert.Equal(t, "Hello", got.Chat[0].Text)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/candidates/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "candidate_not_found")
}
