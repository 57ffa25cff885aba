package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/question"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

type fakeSession struct {
	mu        sync.Mutex
	events    []Event
	switched  []string
	switchErr error
	sendErr   error
	snapshot  Snapshot
}

func (f *fakeSession) Send(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSession) Switch(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.switchErr != nil {
		return f.switchErr
	}
	f.switched = append(f.switched, id)
	f.snapshot.CandidateID = id
	return nil
}

func (f *fakeSession) Snapshot(context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, nil
}

func (f *fakeSession) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func dialSession(t *testing.T, session Session) (*websocket.Conn, *ws.Hub) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	hub := ws.NewHub(logger)
	h := NewHandler(session, hub, websocket.Upgrader{}, logger)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 5*time.Millisecond)
		srv.Close()
	})
	return conn, hub
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := ws.NewMessage(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

func TestHandlerSendsSnapshotOnConnect(t *testing.T) {
	session := &fakeSession{snapshot: Snapshot{CandidateID: "c1", Phase: PhaseIdle}}
	conn, hub := dialSession(t, session)

	msg := readMessage(t, conn)
	assert.Equal(t, ws.TypeSessionSnapshot, msg.Type)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	assert.Equal(t, "c1", snap.CandidateID)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 1, hub.Count())
}

func TestHandlerRoutesClientMessages(t *testing.T) {
	session := &fakeSession{}
	conn, _ := dialSession(t, session)
	readMessage(t, conn)

	writeMessage(t, conn, ws.TypeChatMessage, ws.ChatMessagePayload{Text: "Jane Doe"})
	writeMessage(t, conn, ws.TypeStartSession, struct{}{})
	writeMessage(t, conn, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{Text: "answer", QuestionIndex: idx(2)})
	writeMessage(t, conn, ws.TypePauseSession, struct{}{})
	writeMessage(t, conn, ws.TypeResumeSession, struct{}{})
	writeMessage(t, conn, ws.TypeChatMessage, ws.ChatMessagePayload{Text: "typed answer", QuestionIndex: idx(3)})

	require.Eventually(t, func() bool { return len(session.received()) == 6 }, 2*time.Second, 5*time.Millisecond)
	got := session.received()
	assert.Equal(t, UserTurn{Text: "Jane Doe"}, got[0])
	assert.Equal(t, StartSession{}, got[1])
	assert.Equal(t, SubmitAnswer{Text: "answer", QuestionIndex: 2}, got[2])
	assert.Equal(t, PauseSession{}, got[3])
	assert.Equal(t, ResumeSession{}, got[4])
	turn, ok := got[5].(UserTurn)
	require.True(t, ok)
	require.NotNil(t, turn.QuestionIndex)
	assert.Equal(t, 3, *turn.QuestionIndex)
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		session  *fakeSession
		msgType  string
		payload  any
		wantCode string
	}{
		{"unknown type", &fakeSession{}, "join_queue", struct{}{}, httperrors.ErrCodeUnknownMessageType},
		{"bad chat payload", &fakeSession{}, ws.TypeChatMessage, []int{1}, httperrors.ErrCodeInvalidPayload},
		{"submit without question index", &fakeSession{}, ws.TypeSubmitAnswer, ws.SubmitAnswerPayload{Text: "answer"}, httperrors.ErrCodeMissingField},
		{"switch without id", &fakeSession{}, ws.TypeSwitchCandidate, ws.SwitchCandidatePayload{}, httperrors.ErrCodeInvalidPayload},
		{"switch unknown candidate", &fakeSession{switchErr: fmt.Errorf("load: %w", candidate.ErrNotFound)}, ws.TypeSwitchCandidate, ws.SwitchCandidatePayload{CandidateID: "x"}, httperrors.ErrCodeCandidateNotFound},
		{"runner stopped", &fakeSession{sendErr: ErrRunnerStopped}, ws.TypeStartSession, struct{}{}, httperrors.ErrCodeSessionStopped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _ := dialSession(t, tt.session)
			readMessage(t, conn)

			writeMessage(t, conn, tt.msgType, tt.payload)
			msg := readMessage(t, conn)
			require.Equal(t, ws.TypeError, msg.Type)

			var payload ws.ErrorPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &payload))
			assert.Equal(t, tt.wantCode, payload.Code)
			assert.Empty(t, tt.session.received())
		})
	}
}

func TestHandlerSwitchAndSnapshotRequest(t *testing.T) {
	session := &fakeSession{}
	conn, _ := dialSession(t, session)
	readMessage(t, conn)

	writeMessage(t, conn, ws.TypeSwitchCandidate, ws.SwitchCandidatePayload{CandidateID: "c9"})
	msg, err := ws.NewMessage(ws.TypeRequestSnapshot, struct{}{})
	require.NoError(t, err)
	msg.RequestID = "r1"
	require.NoError(t, conn.WriteJSON(msg))

	reply := readMessage(t, conn)
	assert.Equal(t, ws.TypeSessionSnapshot, reply.Type)
	assert.Equal(t, "r1", reply.RequestID)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(reply.Payload, &snap))
	assert.Equal(t, "c9", snap.CandidateID)
}

type recordingBroadcaster struct {
	msgs []ws.Message
}

func (b *recordingBroadcaster) Broadcast(msg ws.Message) error {
	b.msgs = append(b.msgs, msg)
	return nil
}

func TestHubNotifierEncodesCommands(t *testing.T) {
	b := &recordingBroadcaster{}
	n := NewHubNotifier(b, zerolog.New(io.Discard))

	q := question.Question{ID: "q1", Text: "Explain closures", Difficulty: question.DifficultyEasy, TimeLimit: 20}
	n.Notify(SetActive{CandidateID: "c1"})
	n.Notify(RecordQuestionSet{CandidateID: "c1"})
	n.Notify(PhaseNotice{CandidateID: "c1", Phase: PhaseAskingQuestion, Question: &q, Remaining: 20})
	n.Notify(TickNotice{CandidateID: "c1", QuestionIndex: 0, Remaining: 19})
	n.Notify(RecordAnswer{CandidateID: "c1", Index: 0, Answer: candidate.Answer{Score: 35, Feedback: "ok"}, TotalScore: 35, Trigger: TriggerSubmit})
	n.Notify(CompletionNotice{CandidateID: "c1", FinalScore: 70, Summary: "good"})

	require.Len(t, b.msgs, 4)
	assert.Equal(t, ws.TypePhaseChanged, b.msgs[0].Type)
	assert.Equal(t, ws.TypeTimerTick, b.msgs[1].Type)
	assert.Equal(t, ws.TypeAnswerRecorded, b.msgs[2].Type)
	assert.Equal(t, ws.TypeSessionComplete, b.msgs[3].Type)

	var phase ws.PhaseChangedPayload
	require.NoError(t, json.Unmarshal(b.msgs[0].Payload, &phase))
	require.NotNil(t, phase.Question)
	assert.Equal(t, "Explain closures", phase.Question.Text)
	assert.Equal(t, "asking_question", phase.Phase)

	var answer ws.AnswerRecordedPayload
	require.NoError(t, json.Unmarshal(b.msgs[2].Payload, &answer))
	assert.Equal(t, 35, answer.TotalScore)
	assert.Equal(t, TriggerSubmit, answer.Trigger)
}

func TestHTTPHandlersSession(t *testing.T) {
	session := &fakeSession{snapshot: Snapshot{Phase: PhaseNone}}
	h := NewHTTPHandlers(session, zerolog.New(io.Discard))

	rec := httptest.NewRecorder()
	h.GetSession(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phase":"none"`)

	rec = httptest.NewRecorder()
	h.SetActive(rec, httptest.NewRequest(http.MethodPost, "/v1/session/active", strings.NewReader(`{"candidate_id":"c7"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"candidate_id":"c7"`)

	rec = httptest.NewRecorder()
	h.SetActive(rec, httptest.NewRequest(http.MethodPost, "/v1/session/active", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	session.switchErr = candidate.ErrNotFound
	rec = httptest.NewRecorder()
	h.SetActive(rec, httptest.NewRequest(http.MethodPost, "/v1/session/active", strings.NewReader(`{"candidate_id":"nope"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), httperrors.ErrCodeCandidateNotFound)
}
