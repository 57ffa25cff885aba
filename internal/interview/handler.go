package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

const requestTimeout = 5 * time.Second

// Session is the runner surface used by the transports.
type Session interface {
	Send(ctx context.Context, ev Event) error
	Switch(ctx context.Context, candidateID string) error
	Snapshot(ctx context.Context) (Snapshot, error)
}

var _ Session = (*Runner)(nil)

// Handler manages WebSocket connections and routes session messages.
type Handler struct {
	session  Session
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates the session WebSocket handler.
func NewHandler(session Session, hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		session:  session,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "session_ws").Logger(),
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// peer disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.HandleConnection(r.Context(), conn)
}

// HandleConnection registers conn, sends the current snapshot and routes
// inbound messages.
func (h *Handler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	wsConn := ws.NewConnection(conn, h.logger)
	id := h.hub.Register(wsConn)
	defer h.hub.Unregister(id)

	go wsConn.WritePump()

	if err := h.sendSnapshot(ctx, id, ""); err != nil {
		h.logger.Warn().Err(err).Str("conn_id", id.String()).Msg("initial snapshot failed")
	}

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, id, msg)
	})
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, connID uuid.UUID, msg ws.Message) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch msg.Type {
	case ws.TypeChatMessage:
		var req ws.ChatMessagePayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid chat_message payload")
		}
		return h.send(ctx, connID, UserTurn{Text: req.Text, QuestionIndex: req.QuestionIndex})
	case ws.TypeSubmitAnswer:
		var req ws.SubmitAnswerPayload
		if err := decode(msg.Payload, &req); err != nil {
			return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
		}
		if req.QuestionIndex == nil {
			return h.sendError(connID, httperrors.ErrCodeMissingField, "submit_answer requires question_index")
		}
		return h.send(ctx, connID, SubmitAnswer{Text: req.Text, QuestionIndex: *req.QuestionIndex})
	case ws.TypeStartSession:
		return h.send(ctx, connID, StartSession{})
	case ws.TypePauseSession:
		return h.send(ctx, connID, PauseSession{})
	case ws.TypeResumeSession:
		return h.send(ctx, connID, ResumeSession{})
	case ws.TypeSwitchCandidate:
		return h.handleSwitch(ctx, connID, msg.Payload)
	case ws.TypeRequestSnapshot:
		return h.sendSnapshot(ctx, connID, msg.RequestID)
	default:
		return h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleSwitch(ctx context.Context, connID uuid.UUID, payload json.RawMessage) error {
	var req ws.SwitchCandidatePayload
	if err := decode(payload, &req); err != nil || req.CandidateID == "" {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid switch_candidate payload")
	}

	if err := h.session.Switch(ctx, req.CandidateID); err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			return h.sendError(connID, httperrors.ErrCodeCandidateNotFound, "Candidate not found")
		}
		h.logger.Error().Err(err).Str("candidate_id", req.CandidateID).Msg("switch failed")
		return h.sendError(connID, httperrors.ErrCodeSwitchFailed, "Could not switch candidate")
	}
	return nil
}

func (h *Handler) send(ctx context.Context, connID uuid.UUID, ev Event) error {
	if err := h.session.Send(ctx, ev); err != nil {
		h.logger.Warn().Err(err).Str("event", fmt.Sprintf("%T", ev)).Msg("event not delivered")
		return h.sendError(connID, httperrors.ErrCodeSessionStopped, "Session is not accepting input")
	}
	return nil
}

func (h *Handler) sendSnapshot(ctx context.Context, connID uuid.UUID, requestID string) error {
	snap, err := h.session.Snapshot(ctx)
	if err != nil {
		return h.sendError(connID, httperrors.ErrCodeSessionStopped, "Session is not available")
	}
	msg, err := ws.NewMessage(ws.TypeSessionSnapshot, snap)
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return h.hub.SendTo(connID, msg)
}

func (h *Handler) sendError(connID uuid.UUID, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return h.hub.SendTo(connID, msg)
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(payload, v)
}
