package api

import (
	"errors"
	"fmt"
)

// Flow is a named graph of conversation steps. Flows are immutable from the
// engine's perspective; provisioning replaces a flow wholesale
type Flow struct {
	ID    FlowID  `json:"id"`
	Name  string  `json:"name"`
	Steps []*Step `json:"steps,omitempty"`
}

var (
	ErrFlowIDEmpty       = errors.New("flow ID empty")
	ErrFlowNameEmpty     = errors.New("flow name empty")
	ErrStepNil           = errors.New("step has nil definition")
	ErrDuplicateStepID   = errors.New("duplicate step ID")
	ErrStepFlowMismatch  = errors.New("step belongs to a different flow")
	ErrMultipleEntry     = errors.New("flow has multiple entry steps")
	ErrDanglingBranch    = errors.New("branch targets unknown step")
	ErrBranchOnTerminal  = errors.New("terminal step has branches")
	ErrNoBranchesNonTerm = errors.New("non-terminal step has no branches")
)

// Validate checks that a flow and all of its steps are well formed and
// internally consistent. An empty flow is valid
func (f *Flow) Validate() error {
	if f.ID == "" {
		return ErrFlowIDEmpty
	}
	if f.Name == "" {
		return ErrFlowNameEmpty
	}

	seen := map[StepID]bool{}
	entries := 0
	for _, step := range f.Steps {
		if step == nil {
			return ErrStepNil
		}
		if err := step.Validate(); err != nil {
			return err
		}
		if step.FlowID != f.ID {
			return fmt.Errorf("%w: %s", ErrStepFlowMismatch, step.ID)
		}
		if seen[step.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}
		seen[step.ID] = true
		if step.Entry {
			entries++
		}
	}
	if entries > 1 {
		return ErrMultipleEntry
	}

	for _, step := range f.Steps {
		if step.Terminal && len(step.Branches) > 0 {
			return fmt.Errorf("%w: %s", ErrBranchOnTerminal, step.ID)
		}
		if !step.Terminal && len(step.Branches) == 0 {
			return fmt.Errorf("%w: %s", ErrNoBranchesNonTerm, step.ID)
		}
		for _, b := range step.Branches {
			if !seen[b.Next] {
				return fmt.Errorf("%w: %s -> %s",
					ErrDanglingBranch, step.ID, b.Next)
			}
		}
	}
	return nil
}

// StepByID returns the step with the given ID, or nil if the flow does not
// contain it
func (f *Flow) StepByID(id StepID) *Step {
	for _, step := range f.Steps {
		if step.ID == id {
			return step
		}
	}
	return nil
}
