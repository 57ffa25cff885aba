package resume

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type stubDocuments struct {
	out  *Extraction
	err  error
	mime string
}

func (s *stubDocuments) Extract(_ context.Context, _ []byte, mimeType string) (*Extraction, error) {
	s.mime = mimeType
	return s.out, s.err
}

func newService(max int64, docs DocumentExtractor) *Service {
	return NewService(max, docs, zerolog.New(io.Discard))
}

func TestValidate(t *testing.T) {
	s := newService(1024, nil)

	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
		wantErr  error
	}{
		{"plain text", []byte("Jane Doe\njane@example.com"), "text/plain", MIMEText, nil},
		{"text with charset", []byte("Jane Doe"), "text/plain; charset=utf-8", MIMEText, nil},
		{"pdf", pdfBytes, "application/pdf", MIMEPDF, nil},
		{"declared upper case", pdfBytes, "Application/PDF", MIMEPDF, nil},
		{"pdf declared but text content", []byte("just text"), "application/pdf", "", ErrUnsupportedType},
		{"image", []byte("\x89PNG\r\n\x1a\n0000"), "image/png", "", ErrUnsupportedType},
		{"garbage content type", []byte("x"), ";;", "", ErrUnsupportedType},
		{"empty", nil, "text/plain", "", ErrEmpty},
		{"too large", bytes.Repeat([]byte("a"), 1025), "text/plain", "", ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Validate(tt.data, tt.declared)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPlainTextLocally(t *testing.T) {
	docs := &stubDocuments{}
	s := newService(1024, docs)

	out, err := s.Extract(context.Background(), []byte("Alan Turing\nalan@example.com"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing", out.Name)
	assert.Equal(t, "alan@example.com", out.Email)
	assert.Empty(t, docs.mime, "plain text never reaches the extractor")
}

func TestExtractDocumentRemotely(t *testing.T) {
	docs := &stubDocuments{out: &Extraction{Email: "remote@example.com", RawText: "Jane Doe\r\n\r\nremote@example.com"}}
	s := newService(1024, docs)

	out, err := s.Extract(context.Background(), pdfBytes, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, MIMEPDF, docs.mime)
	assert.Equal(t, "Jane Doe", out.Name)
	assert.Equal(t, "remote@example.com", out.Email)
	assert.Equal(t, "Jane Doe\nremote@example.com", out.RawText)
}

func TestExtractDocumentErrors(t *testing.T) {
	_, err := newService(1024, nil).Extract(context.Background(), pdfBytes, "application/pdf")
	assert.ErrorIs(t, err, ErrExtractorNotEnabled)

	_, err = newService(1024, &stubDocuments{err: errors.New("timeout")}).Extract(context.Background(), pdfBytes, "application/pdf")
	assert.ErrorContains(t, err, "timeout")
	assert.False(t, errors.Is(err, ErrUnsupportedType))
}

func TestHTTPExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, MIMEPDF, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		if !bytes.HasPrefix(body, []byte("%PDF")) {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"name":"Jane Doe","email":"","phone":"","sections":{"education":"","experience":"","skills":""},"rawText":"Jane Doe\njane@example.com"}`))
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, time.Second, zerolog.New(io.Discard))
	out, err := e.Extract(context.Background(), pdfBytes, MIMEPDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", out.Name)
	assert.True(t, strings.HasPrefix(out.RawText, "Jane Doe"))
}

func TestHTTPExtractorFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Content-Type") {
		case MIMEDOC:
			_, _ = w.Write([]byte(`{"rawText":"  "}`))
		default:
			http.Error(w, "nope", http.StatusUnprocessableEntity)
		}
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL+"/", time.Second, zerolog.New(io.Discard))
	_, err := e.Extract(context.Background(), pdfBytes, MIMEPDF)
	assert.ErrorContains(t, err, "422")

	_, err = e.Extract(context.Background(), pdfBytes, MIMEDOC)
	assert.ErrorContains(t, err, "no text")
}
