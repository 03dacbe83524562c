// Package ingestion submits operator documents to the upstream knowledge
// base and reports per-item outcomes.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"salesagent/models"

	"go.uber.org/zap"
)

// Backend is the slice of the upstream API the dispatcher needs.
type Backend interface {
	IngestPDF(ctx context.Context, filename string, file io.Reader) (int, error)
	IngestURL(ctx context.Context, rawURL string) (int, error)
	IngestText(ctx context.Context, text, source string) (int, error)
	ResetVectorStore(ctx context.Context) error
}

// ErrNotConfirmed guards the destructive reset: no confirmation, no call.
var ErrNotConfirmed = errors.New("reset requires explicit confirmation")

// Fixed failure wordings. URL and text failures stay generic; a PDF failure
// carries the upstream's text so the operator sees why the upload bounced.
const (
	failURLMessage  = "URL ingestion failed."
	failTextMessage = "Text ingestion failed."
)

// Dispatcher validates inputs locally, issues exactly one request per item,
// and never retries.
type Dispatcher struct {
	Backend Backend
	Logger  *zap.Logger
}

func NewDispatcher(backend Backend, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{Backend: backend, Logger: logger}
}

// IngestPDF uploads a PDF for indexing.
func (d *Dispatcher) IngestPDF(ctx context.Context, filename string, file io.Reader) models.IngestResult {
	if filename == "" || file == nil {
		return models.IngestResult{Kind: models.IngestKindPDF, Message: "No file uploaded"}
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return models.IngestResult{Kind: models.IngestKindPDF, Message: "Only PDF files are supported here."}
	}

	chunks, err := d.Backend.IngestPDF(ctx, filename, file)
	if err != nil {
		d.Logger.Warn("pdf ingestion failed", zap.String("filename", filename), zap.Error(err))
		return models.IngestResult{
			Kind:    models.IngestKindPDF,
			Message: fmt.Sprintf("PDF ingestion failed: %s", err.Error()),
			Err:     err,
		}
	}
	return models.IngestResult{
		Kind:          models.IngestKindPDF,
		OK:            true,
		ChunksCreated: chunks,
		Message:       fmt.Sprintf("PDF indexed: %d chunks created.", chunks),
	}
}

// IngestURL asks the upstream to scrape and index a page.
func (d *Dispatcher) IngestURL(ctx context.Context, rawURL string) models.IngestResult {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return models.IngestResult{Kind: models.IngestKindURL, Message: "URL is required"}
	}

	chunks, err := d.Backend.IngestURL(ctx, rawURL)
	if err != nil {
		d.Logger.Warn("url ingestion failed", zap.String("url", rawURL), zap.Error(err))
		return models.IngestResult{Kind: models.IngestKindURL, Message: failURLMessage, Err: err}
	}
	return models.IngestResult{
		Kind:          models.IngestKindURL,
		OK:            true,
		ChunksCreated: chunks,
		Message:       fmt.Sprintf("URL indexed: %d chunks.", chunks),
	}
}

// IngestText indexes pasted business info under a source label.
func (d *Dispatcher) IngestText(ctx context.Context, text, source string) models.IngestResult {
	if strings.TrimSpace(text) == "" {
		return models.IngestResult{Kind: models.IngestKindText, Message: "Text is required"}
	}
	if source == "" {
		source = "manual"
	}

	chunks, err := d.Backend.IngestText(ctx, text, source)
	if err != nil {
		d.Logger.Warn("text ingestion failed", zap.String("source", source), zap.Error(err))
		return models.IngestResult{Kind: models.IngestKindText, Message: failTextMessage, Err: err}
	}
	return models.IngestResult{
		Kind:          models.IngestKindText,
		OK:            true,
		ChunksCreated: chunks,
		Message:       fmt.Sprintf("Text indexed: %d chunks.", chunks),
	}
}

// ResetKnowledgeBase wipes the upstream vector store. The confirmed flag must
// be set by an explicit user confirmation; otherwise no request is issued.
func (d *Dispatcher) ResetKnowledgeBase(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := d.Backend.ResetVectorStore(ctx); err != nil {
		d.Logger.Warn("vector store reset failed", zap.Error(err))
		return err
	}
	return nil
}
