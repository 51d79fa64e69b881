// Package draft turns a category and free text into generated ticket markup.
package draft

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// Request is one text-generation call: a system instruction followed by
// user turns, in order.
type Request struct {
	System string
	Turns  []string
}

// Generator is a text-generation capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// StreamingGenerator can additionally surface output as it is produced.
// The returned string is the complete output, the same as Generate would give.
type StreamingGenerator interface {
	Generator
	GenerateStream(ctx context.Context, req Request, onChunk func(string)) (string, error)
}

// GenerationError wraps a failed generation call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate ticket: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Option configures a Drafter.
type Option func(*Drafter)

// WithProgress registers a callback for incremental output. It is only used
// when the generator implements StreamingGenerator.
func WithProgress(fn func(chunk string)) Option {
	return func(d *Drafter) { d.progress = fn }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Drafter) { d.logger = logger }
}

// Drafter builds the drafting instruction and runs a single generation call.
// It keeps no state between calls.
type Drafter struct {
	gen      Generator
	progress func(string)
	logger   *slog.Logger
}

// New creates a Drafter backed by gen.
func New(gen Generator, opts ...Option) *Drafter {
	d := &Drafter{gen: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildRequest assembles the generation request for a draft request.
// No validation is done here.
func BuildRequest(req models.DraftRequest) Request {
	return Request{
		System: instruction,
		Turns: []string{
			"Input Type: " + string(req.Category),
			"Content: " + req.FreeText,
			closingTurn,
		},
	}
}

// Draft runs one generation call and returns the generated text unmodified.
// Any failure of the call is returned as a *GenerationError.
func (d *Drafter) Draft(ctx context.Context, req models.DraftRequest) (string, error) {
	genReq := BuildRequest(req)

	var (
		raw string
		err error
	)
	if sg, ok := d.gen.(StreamingGenerator); ok && d.progress != nil {
		raw, err = sg.GenerateStream(ctx, genReq, d.progress)
	} else {
		raw, err = d.gen.Generate(ctx, genReq)
	}
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	d.logger.Debug("generated ticket text", "category", string(req.Category), "bytes", len(raw))
	return raw, nil
}
