package interview

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the live session.
type HTTPHandlers struct {
	session Session
	logger  zerolog.Logger
}

func NewHTTPHandlers(session Session, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		session: session,
		logger:  logger.With().Str("component", "session_http").Logger(),
	}
}

type switchRequestBody struct {
	CandidateID string `json:"candidate_id"`
}

// GetSession handles GET /v1/session
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("snapshot failed")
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeSessionStopped, "Session is not available")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, snap)
}

// SetActive handles POST /v1/session/active
func (h *HTTPHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	var req switchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.CandidateID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "candidate_id is required", "candidate_id")
		return
	}

	if err := h.session.Switch(r.Context(), req.CandidateID); err != nil {
		switch {
		case errors.Is(err, candidate.ErrNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeCandidateNotFound, "Candidate not found")
		case errors.Is(err, ErrRunnerStopped):
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeSessionStopped, "Session is not available")
		default:
			h.logger.Error().Err(err).Str("candidate_id", req.CandidateID).Msg("switch failed")
			httperrors.RespondInternalError(w, "Could not switch candidate")
		}
		return
	}

	h.GetSession(w, r)
}
