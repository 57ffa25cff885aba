package candidate

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
)

const maxListLimit = 100

// HTTPHandler exposes the interviewer dashboard queries.
type HTTPHandler struct {
	store  Store
	logger zerolog.Logger
}

func NewHTTPHandler(store Store, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		store:  store,
		logger: logger.With().Str("component", "candidate_http").Logger(),
	}
}

// HandleList responds with dashboard rows.
// Route: GET /v1/candidates?q=&sort=score|date|name&limit=50
func (h *HTTPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy := strings.ToLower(q.Get("sort"))
	switch sortBy {
	case "", SortByScore, SortByDate, SortByName:
	default:
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "sort must be score, date or name", "sort")
		return
	}
	if sortBy == "" {
		sortBy = SortByScore
	}

	limit := 50
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxListLimit {
			limit = parsed
		}
	}

	rows, err := h.store.ListCandidates(r.Context(), ListOptions{Query: q.Get("q"), SortBy: sortBy, Limit: limit})
	if err != nil {
		h.logger.Error().Err(err).Msg("list candidates failed")
		httperrors.RespondInternalError(w, "Could not list candidates")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"candidates":  rows,
		"count":       len(rows),
		"sort":        sortBy,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleGet responds with one candidate including questions, answers and chat.
// Route: GET /v1/candidates/{id}
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "candidate id required", "id")
		return
	}

	c, err := h.store.GetCandidate(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeCandidateNotFound, "Candidate not found")
			return
		}
		h.logger.Error().Err(err).Str("candidate_id", id).Msg("get candidate failed")
		httperrors.RespondInternalError(w, "Could not load candidate")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, c)
}
