package resume

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// Accepted document types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDOC  = "application/msword"
	MIMEText = "text/plain"
)

var allowed = map[string]bool{
	MIMEPDF:  true,
	MIMEDOCX: true,
	MIMEDOC:  true,
	MIMEText: true,
}

var (
	ErrUnsupportedType     = errors.New("unsupported resume file type")
	ErrTooLarge            = errors.New("resume file too large")
	ErrEmpty               = errors.New("resume file is empty")
	ErrExtractorNotEnabled = errors.New("document extraction service not configured")
)

// DocumentExtractor turns binary documents into an Extraction.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error)
}

// Service validates uploads and extracts candidate details. Plain text is
// parsed locally; PDF and Word documents go to the extractor.
type Service struct {
	maxBytes  int64
	documents DocumentExtractor
	logger    zerolog.Logger
}

// NewService builds the extractor; documents may be nil, in which case only
// plain text is accepted.
func NewService(maxBytes int64, documents DocumentExtractor, logger zerolog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Service{
		maxBytes:  maxBytes,
		documents: documents,
		logger:    logger.With().Str("component", "resume").Logger(),
	}
}

// MaxBytes is the accepted document ceiling.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Validate checks size, the declared type and the sniffed content. It
// returns the canonical MIME type.
func (s *Service) Validate(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(data), s.maxBytes)
	}

	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}
	mediaType = strings.ToLower(mediaType)
	if !allowed[mediaType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}

	detected := mimetype.Detect(data)
	if !matches(detected, mediaType) {
		return "", fmt.Errorf("%w: declared %s but content is %s", ErrUnsupportedType, mediaType, detected.String())
	}
	return mediaType, nil
}

// Extract validates data and returns the parsed resume.
func (s *Service) Extract(ctx context.Context, data []byte, declared string) (*Extraction, error) {
	mediaType, err := s.Validate(data, declared)
	if err != nil {
		return nil, err
	}

	if mediaType == MIMEText {
		out := Parse(string(data))
		return &out, nil
	}

	if s.documents == nil {
		return nil, ErrExtractorNotEnabled
	}
	out, err := s.documents.Extract(ctx, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", mediaType, err)
	}
	out.RawText = normalize(out.RawText)
	out.fillMissing()

	s.logger.Debug().Str("mime", mediaType).Int("bytes", len(data)).Bool("name_found", out.Name != "").Msg("resume extracted")
	return out, nil
}

// matches walks the detected type's ancestry so that, for example, CSV is
// accepted as plain text.
func matches(detected *mimetype.MIME, want string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}
