package scoreboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newTestService(client *redis.Client) *Service {
	return NewService(client, zerolog.New(io.Discard), Options{TopN: 5})
}

func TestRecordAndTop(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	svc := newTestService(client)

	require.NoError(t, svc.Record(ctx, "c1", "Jane Doe", 72))
	require.NoError(t, svc.Record(ctx, "c2", "John Roe", 91))
	require.NoError(t, svc.Record(ctx, "c3", "", 40))

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{CandidateID: "c2", Name: "John Roe", FinalScore: 91},
		{CandidateID: "c1", Name: "Jane Doe", FinalScore: 72},
		{CandidateID: "c3", Name: "", FinalScore: 40},
	}, top)

	top, err = svc.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c2", top[0].CandidateID)
}

func TestRecordReplacesPreviousScore(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	svc := newTestService(client)

	require.NoError(t, svc.Record(ctx, "c1", "Jane", 90))
	require.NoError(t, svc.Record(ctx, "c1", "Jane Doe", 30))

	top, err := svc.Top(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{CandidateID: "c1", Name: "Jane Doe", FinalScore: 30}}, top)
}

func TestTopEmpty(t *testing.T) {
	_, client := newRedis(t)

	top, err := newTestService(client).Top(context.Background(), 3)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.NotNil(t, top)
}

type recordingHub struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func (h *recordingHub) Broadcast(msg ws.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msg)
	return nil
}

func (h *recordingHub) messages() []ws.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ws.Message(nil), h.msgs...)
}

func TestBroadcasterForwardsUpdates(t *testing.T) {
	_, client := newRedis(t)
	svc := newTestService(client)
	hub := &recordingHub{}
	b := NewBroadcaster(client, hub, "", zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-b.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster never subscribed")
	}

	require.NoError(t, svc.Record(context.Background(), "c1", "Jane Doe", 88))

	require.Eventually(t, func() bool { return len(hub.messages()) == 1 }, 2*time.Second, 10*time.Millisecond)
	msg := hub.messages()[0]
	assert.Equal(t, ws.TypeScoreboardUpdate, msg.Type)

	var payload ws.ScoreboardUpdatePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "c1", payload.CandidateID)
	require.Len(t, payload.Top, 1)
	assert.Equal(t, ws.ScoreboardEntry{Rank: 1, CandidateID: "c1", Name: "Jane Doe", FinalScore: 88}, payload.Top[0])
}

func TestBroadcasterIgnoresGarbage(t *testing.T) {
	hub := &recordingHub{}
	b := NewBroadcaster(nil, hub, "", zerolog.New(io.Discard))

	b.forward("{not json")
	assert.Empty(t, hub.messages())
	assert.NoError(t, b.Run(context.Background()), "no redis means nothing to run")
}

func seedStore(t *testing.T) *candidate.MemoryStore {
	t.Helper()
	ctx := context.Background()
	store := candidate.NewMemoryStore()

	done, err := store.CreateCandidate(ctx, candidate.NewCandidate{Name: "Done"})
	require.NoError(t, err)
	require.NoError(t, store.SetSummary(ctx, done.ID, "ok", 64))
	require.NoError(t, store.SetStatus(ctx, done.ID, candidate.StatusCompleted, time.Now()))

	_, err = store.CreateCandidate(ctx, candidate.NewCandidate{Name: "Pending"})
	require.NoError(t, err)
	return store
}

func TestReconcileCopiesCompletedCandidates(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	svc := newTestService(client)
	w := NewReconcileWorker(svc, seedStore(t), time.Minute, zerolog.New(io.Discard))

	n, err := w.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Done", top[0].Name)
	assert.Equal(t, 64, top[0].FinalScore)
}

func TestHandleGet(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	svc := newTestService(client)
	require.NoError(t, svc.Record(ctx, "c1", "Jane Doe", 77))

	h := NewHTTPHandler(svc, nil, zerolog.New(io.Discard))
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/scoreboard?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Top    []ws.ScoreboardEntry `json:"top"`
		Source string               `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "redis", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "Jane Doe", body.Top[0].Name)
}

func TestHandleGetFallsBackToStore(t *testing.T) {
	mr, client := newRedis(t)
	svc := newTestService(client)
	mr.Close()

	h := NewHTTPHandler(svc, seedStore(t), zerolog.New(io.Discard))
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/v1/scoreboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Top    []ws.ScoreboardEntry `json:"top"`
		Source string               `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "store", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "Done", body.Top[0].Name)
	assert.Equal(t, 1, body.Top[0].Rank)
}
