package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/ShayCichocki/ticketsmith/internal/draft"
	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

type stubGenerator struct {
	out   string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, req draft.Request) (string, error) {
	s.calls++
	return s.out, s.err
}

type plainErrDrafter struct{ err error }

func (p plainErrDrafter) Draft(ctx context.Context, req models.DraftRequest) (string, error) {
	return "", p.err
}

var techReq = models.DraftRequest{Category: models.CategoryTechnical, FreeText: "login is broken"}

func TestRun_Success(t *testing.T) {
	gen := &stubGenerator{out: "<jira_ticket><summary>Fix login bug</summary><description>h2. Background\nUsers cannot log in.</description><priority>High</priority></jira_ticket>"}
	p := New(draft.New(gen), nil)

	res, err := p.Run(context.Background(), techReq)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Raw != gen.out {
		t.Error("Result.Raw should carry the generated text")
	}
	if res.Record.Summary != "Fix login bug" || res.Record.Priority != "High" {
		t.Errorf("Record = %+v", res.Record)
	}
}

func TestRun_ExtractionFailureKeepsRaw(t *testing.T) {
	gen := &stubGenerator{out: "Sorry, I need more detail."}
	p := New(draft.New(gen), nil)

	res, err := p.Run(context.Background(), techReq)
	if !IsExtractionFailure(err) {
		t.Fatalf("Run() error = %v, want extraction failure", err)
	}
	if IsGenerationFailure(err) {
		t.Error("extraction failure must not look like a generation failure")
	}
	if res == nil || res.Raw != gen.out {
		t.Fatalf("Result.Raw should be preserved, got %+v", res)
	}
	if res.Record != nil {
		t.Error("no record should be produced on extraction failure")
	}
}

func TestRun_GenerationFailureSkipsExtraction(t *testing.T) {
	gen := &stubGenerator{out: "<summary>S</summary><description>D</description>", err: errors.New("connection reset")}
	p := New(draft.New(gen), nil)

	res, err := p.Run(context.Background(), techReq)
	if res != nil {
		t.Errorf("Run() result = %+v, want nil on generation failure", res)
	}
	if !IsGenerationFailure(err) {
		t.Fatalf("Run() error = %v, want generation failure", err)
	}
	if IsExtractionFailure(err) {
		t.Error("generation failure must not look like an extraction failure")
	}
}

func TestRun_WrapsForeignDrafterErrors(t *testing.T) {
	p := New(plainErrDrafter{err: context.Canceled}, nil)

	_, err := p.Run(context.Background(), techReq)
	if !IsGenerationFailure(err) {
		t.Fatalf("Run() error = %v, want generation failure", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("wrapped error should unwrap to context.Canceled")
	}
}

func TestRun_IndependentCalls(t *testing.T) {
	good := "<summary>A</summary><description>B</description>"
	gen := &stubGenerator{out: good}
	p := New(draft.New(gen), nil)

	first, err := p.Run(context.Background(), techReq)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	gen.out = "garbage"
	if _, err := p.Run(context.Background(), techReq); !IsExtractionFailure(err) {
		t.Fatalf("second Run() error = %v, want extraction failure", err)
	}

	gen.out = good
	third, err := p.Run(context.Background(), techReq)
	if err != nil {
		t.Fatalf("third Run() error = %v", err)
	}
	if *first.Record != *third.Record {
		t.Error("a failed run should not affect later runs")
	}
}
