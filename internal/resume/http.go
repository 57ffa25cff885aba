package resume

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mock-interview/internal/candidate"
	"github.com/gokatarajesh/mock-interview/internal/interview"
	"github.com/gokatarajesh/mock-interview/internal/metrics"
	"github.com/gokatarajesh/mock-interview/internal/question"
	httperrors "github.com/gokatarajesh/mock-interview/pkg/http/errors"
)

// multipart framing allowance on top of the document ceiling
const formOverhead = 1 << 20

// Activator makes a stored candidate the live one.
type Activator interface {
	Switch(ctx context.Context, candidateID string) error
}

// Prefetcher warms the question cache in the background.
type Prefetcher interface {
	Enqueue(req question.Request) bool
}

// UploadHandler serves POST /v1/resumes.
type UploadHandler struct {
	service   *Service
	store     candidate.Store
	activator Activator
	prefetch  Prefetcher
	logger    zerolog.Logger
}

func NewUploadHandler(service *Service, store candidate.Store, activator Activator, prefetch Prefetcher, logger zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		service:   service,
		store:     store,
		activator: activator,
		prefetch:  prefetch,
		logger:    logger.With().Str("component", "resume_http").Logger(),
	}
}

type uploadResponse struct {
	Candidate     *candidate.Candidate `json:"candidate"`
	MissingFields []string             `json:"missing_fields"`
	Sections      Sections             `json:"sections"`
}

// HandleUpload accepts a multipart "file" field, creates the candidate and
// activates it. Nothing is stored when validation or extraction fails.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	limit := h.service.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.reject(w, ErrTooLarge)
			return
		}
		metrics.ResumeUploads.WithLabelValues("invalid").Inc()
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "No file uploaded", "file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		h.logger.Error().Err(err).Msg("read upload failed")
		httperrors.RespondInternalError(w, "Could not read upload")
		return
	}

	ext, err := h.service.Extract(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		h.reject(w, err)
		return
	}

	c, err := h.store.CreateCandidate(r.Context(), candidate.NewCandidate{
		Name:       ext.Name,
		Email:      ext.Email,
		Phone:      ext.Phone,
		ResumeText: ext.RawText,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("create candidate failed")
		metrics.ResumeUploads.WithLabelValues("error").Inc()
		httperrors.RespondInternalError(w, "Could not create candidate")
		return
	}

	if err := h.activator.Switch(r.Context(), c.ID); err != nil {
		h.logger.Error().Err(err).Str("candidate_id", c.ID).Msg("activate uploaded candidate failed")
	}
	if h.prefetch != nil && !h.prefetch.Enqueue(question.Request{}) {
		h.logger.Debug().Msg("prefetch queue full")
	}

	metrics.ResumeUploads.WithLabelValues("accepted").Inc()
	h.logger.Info().Str("candidate_id", c.ID).Str("file", header.Filename).Msg("resume accepted")

	missing := interview.MissingFields(c.Profile())
	if missing == nil {
		missing = []string{}
	}
	httperrors.RespondJSON(w, http.StatusCreated, uploadResponse{Candidate: c, MissingFields: missing, Sections: ext.Sections})
}

func (h *UploadHandler) reject(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		metrics.ResumeUploads.WithLabelValues("too_large").Inc()
		httperrors.RespondRequestTooLarge(w, httperrors.ErrCodeFileTooLarge, fmt.Sprintf("File size must be less than %dMB", h.service.MaxBytes()>>20), h.service.MaxBytes())
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrEmpty), errors.Is(err, ErrExtractorNotEnabled):
		metrics.ResumeUploads.WithLabelValues("unsupported").Inc()
		httperrors.RespondUnsupportedMediaType(w, httperrors.ErrCodeUnsupportedFileType, "Please upload a PDF or DOCX file")
	default:
		h.logger.Warn().Err(err).Msg("resume extraction failed")
		metrics.ResumeUploads.WithLabelValues("extraction_failed").Inc()
		httperrors.RespondUpstreamError(w, httperrors.ErrCodeExtractionFailed, "Failed to parse resume")
	}
}
