package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/ticketsmith/pkg/models"
)

// ErrInvalidTransition is returned when a session method is called in a state
// that does not allow it.
var ErrInvalidTransition = errors.New("invalid session transition")

// Session is the explicit state of one interactive drafting session.
// It is owned by the caller and is not safe for concurrent use.
type Session struct {
	ID        string
	State     models.SessionState
	Request   models.DraftRequest
	Raw       string
	Record    *models.TicketRecord
	Err       error
	IssueKey  string
	UpdatedAt time.Time
}

// NewSession returns an idle session with a fresh ID.
func NewSession() *Session {
	return &Session{
		ID:        uuid.New().String(),
		State:     models.StateIdle,
		UpdatedAt: time.Now(),
	}
}

func (s *Session) moveTo(next models.SessionState) error {
	if !s.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, next)
	}
	s.State = next
	s.UpdatedAt = time.Now()
	return nil
}

// Begin records the request and enters drafting.
func (s *Session) Begin(req models.DraftRequest) error {
	if err := s.moveTo(models.StateDrafting); err != nil {
		return err
	}
	s.Request = req
	s.Raw, s.Record, s.Err, s.IssueKey = "", nil, nil, ""
	return nil
}

// Finish applies the outcome of Pipeline.Run: review on success, failed otherwise.
func (s *Session) Finish(res *Result, err error) error {
	next := models.StateReview
	if err != nil || res == nil || res.Record == nil {
		next = models.StateFailed
	}
	if err := s.moveTo(next); err != nil {
		return err
	}
	if res != nil {
		s.Raw = res.Raw
		s.Record = res.Record
	}
	if next == models.StateFailed && err == nil {
		err = errors.New("no ticket produced")
	}
	s.Err = err
	return nil
}

// Commit marks the reviewed ticket as created under issueKey.
func (s *Session) Commit(issueKey string) error {
	if err := s.moveTo(models.StateCommitted); err != nil {
		return err
	}
	s.IssueKey = issueKey
	return nil
}

// Reset discards the current ticket and returns to idle. It is the only way
// out of failed, review (rejection), committed, and an abandoned drafting call.
func (s *Session) Reset() error {
	if s.State == models.StateIdle {
		return nil
	}
	if err := s.moveTo(models.StateIdle); err != nil {
		return err
	}
	s.Raw, s.Record, s.Err, s.IssueKey = "", nil, nil, ""
	return nil
}
