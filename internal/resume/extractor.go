package resume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTPExtractor posts raw documents to the extraction service, which replies
// with an Extraction document.
type HTTPExtractor struct {
	httpClient *http.Client
	url        string
	logger     zerolog.Logger
}

var _ DocumentExtractor = (*HTTPExtractor)(nil)

func NewHTTPExtractor(url string, timeout time.Duration, logger zerolog.Logger) *HTTPExtractor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPExtractor{
		httpClient: &http.Client{Timeout: timeout},
		url:        strings.TrimSuffix(url, "/") + "/extract",
		logger:     logger.With().Str("component", "resume_extractor").Logger(),
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*Extraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var out Extraction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode extractor payload: %w", err)
	}
	if strings.TrimSpace(out.RawText) == "" {
		return nil, fmt.Errorf("extractor returned no text")
	}
	return &out, nil
}
