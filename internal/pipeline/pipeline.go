// Package pipeline runs the draft-then-extract transformation and tracks the
// caller-owned session state around it.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ShayCichocki/ticketsmith/internal/draft"
	"github.com/ShayCichocki/ticketsmith/internal/extract"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// Result is the outcome of one Run. Raw is set whenever generation succeeded,
// including when extraction failed.
type Result struct {
	Raw    string
	Record *models.TicketRecord
}

// Drafter produces raw ticket markup.
type Drafter interface {
	Draft(ctx context.Context, req models.DraftRequest) (string, error)
}

// Pipeline composes a Drafter with the extractor.
type Pipeline struct {
	drafter Drafter
	logger  *slog.Logger
}

// New creates a Pipeline.
func New(d Drafter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{drafter: d, logger: logger}
}

// Run drafts and extracts a ticket. On a generation failure the error is a
// *draft.GenerationError and extraction is never attempted. On an extraction
// failure the error is an *extract.Error and the returned Result still carries
// the raw text.
func (p *Pipeline) Run(ctx context.Context, req models.DraftRequest) (*Result, error) {
	raw, err := p.drafter.Draft(ctx, req)
	if err != nil {
		var genErr *draft.GenerationError
		if !errors.As(err, &genErr) {
			err = &draft.GenerationError{Err: err}
		}
		p.logger.Error("ticket generation failed", "category", string(req.Category), "error", err)
		return nil, err
	}

	p.logger.Debug("raw ticket output", "raw", raw)

	res := &Result{Raw: raw}
	rec, err := extract.Extract(raw)
	if err != nil {
		p.logger.Error("ticket extraction failed", "category", string(req.Category), "error", err)
		return res, err
	}
	res.Record = rec
	return res, nil
}

// IsGenerationFailure reports whether err came from the generation call.
func IsGenerationFailure(err error) bool {
	var genErr *draft.GenerationError
	return errors.As(err, &genErr)
}

// IsExtractionFailure reports whether err came from parsing the output.
func IsExtractionFailure(err error) bool {
	var exErr *extract.Error
	return errors.As(err, &exErr)
}
