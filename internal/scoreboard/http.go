package scoreboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
	ws "github.com/gokatarajesh/mock-interview/pkg/http/ws"
)

// HTTPHandler exposes the scoreboard over REST.
type HTTPHandler struct {
	svc    *Service
	store  CandidateLister
	logger zerolog.Logger
}

// NewHTTPHandler builds the handler. svc may be nil when Redis is not
// configured; store then serves every request.
func NewHTTPHandler(svc *Service, store CandidateLister, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		store:  store,
		logger: logger.With().Str("component", "scoreboard_http").Logger(),
	}
}

// HandleGet responds with the top completed candidates.
// Route: GET /v1/scoreboard?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []ws.ScoreboardEntry
		source = "redis"
	)

	if h.svc != nil {
		if entries, err := h.svc.Top(ctx, limit); err == nil {
			top = toWSEntries(entries)
		} else {
			h.logger.Warn().Err(err).Msg("redis scoreboard fetch failed")
		}
	}

	if len(top) == 0 {
		source = "store"
		entries, err := h.storeFallback(ctx, limit)
		if err != nil {
			h.logger.Error().Err(err).Msg("store scoreboard fetch failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeScoreboardFetchFailed, "Failed to fetch scoreboard")
			return
		}
		top = toWSEntries(entries)
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) storeFallback(ctx context.Context, limit int) ([]Entry, error) {
	if h.store == nil {
		return []Entry{}, nil
	}
	rows, err := h.store.ListCandidates(ctx, candidate.ListOptions{SortBy: candidate.SortByScore, Limit: limit})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if row.Status != candidate.StatusCompleted || row.FinalScore == nil {
			continue
		}
		entries = append(entries, Entry{CandidateID: row.ID, Name: row.Name, FinalScore: *row.FinalScore})
	}
	return entries, nil
}
