package api

import (
	"errors"
	"time"
)

// Session tracks one user's traversal of a flow. The state machine is the
// pair (CurrentStepID, Completed): transitions only move CurrentStepID
// forward along flow branches, and Completed=true is terminal. An empty
// CurrentStepID on an incomplete session means the flow had no entry step.
//
// Revision supports the store's optimistic concurrency check; it is bumped
// by the store on every accepted update
type Session struct {
	ID            SessionID `json:"id"`
	UserID        UserID    `json:"user_id"`
	FlowID        FlowID    `json:"flow_id"`
	CurrentStepID StepID    `json:"current_step_id,omitempty"`
	Completed     bool      `json:"completed"`
	Revision      int64     `json:"revision"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	CompletedAt   time.Time `json:"completed_at,omitzero"`
}

var (
	ErrSessionIDEmpty   = errors.New("session ID empty")
	ErrSessionUserEmpty = errors.New("session user ID empty")
	ErrSessionFlowEmpty = errors.New("session flow ID empty")
	ErrSessionCompleted = errors.New("session already completed")
	ErrAdvanceToNilStep = errors.New("cannot advance to nil step")
)

// Validate checks that a session is well formed
func (s *Session) Validate() error {
	if s.ID == "" {
		return ErrSessionIDEmpty
	}
	if s.UserID == "" {
		return ErrSessionUserEmpty
	}
	if s.FlowID == "" {
		return ErrSessionFlowEmpty
	}
	return nil
}

// Active reports whether the session can still advance
func (s *Session) Active() bool {
	return !s.Completed
}

// AdvanceTo moves the session to the given step, marking it completed in
// the same mutation when the step is terminal. The caller persists the
// result as one logical update
func (s *Session) AdvanceTo(step *Step, now time.Time) error {
	if step == nil {
		return ErrAdvanceToNilStep
	}
	if s.Completed {
		return ErrSessionCompleted
	}
	s.CurrentStepID = step.ID
	if step.Terminal {
		s.Completed = true
		s.CompletedAt = now
	}
	return nil
}
