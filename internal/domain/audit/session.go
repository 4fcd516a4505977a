package audit

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle of the analysis run attached to one browser session.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateAnalyzing  State = "analyzing"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

var (
	ErrAnalysisInProgress = errors.New("audit: an analysis is already in progress")
	ErrInvalidTransition  = errors.New("audit: invalid session state transition")
)

// Busy reports whether a run is in flight.
func (s State) Busy() bool {
	return s == StateValidating || s == StateAnalyzing
}

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateComplete:   {StateValidating},
	StateFailed:     {StateValidating},
	StateValidating: {StateAnalyzing, StateFailed},
	StateAnalyzing:  {StateComplete, StateFailed},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Session is the explicit per-client state that replaces scattered busy flags.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	RunID     string    `json:"run_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns an idle session.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, State: StateIdle, UpdatedAt: now}
}

// Start begins a new run. It fails with ErrAnalysisInProgress while a run is in flight.
func (s *Session) Start(runID string, now time.Time) error {
	if s.State.Busy() {
		return ErrAnalysisInProgress
	}
	if err := s.transition(StateValidating, now); err != nil {
		return err
	}
	s.RunID = runID
	s.LastError = ""
	return nil
}

// Advance moves the session to a non-failure state.
func (s *Session) Advance(to State, now time.Time) error {
	return s.transition(to, now)
}

// Fail ends the in-flight run with a reason.
func (s *Session) Fail(reason string, now time.Time) error {
	if err := s.transition(StateFailed, now); err != nil {
		return err
	}
	s.LastError = reason
	return nil
}

func (s *Session) transition(to State, now time.Time) error {
	if !CanTransition(s.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
	}
	s.State = to
	s.UpdatedAt = now
	return nil
}
