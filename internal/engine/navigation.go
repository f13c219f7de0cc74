package engine

import "github.com/convoflow/engine/pkg/api"

// FirstStep returns a flow's entry step: the step carrying the explicit
// entry marker, or failing that the step with the lowest order. A flow
// with no steps has no entry step; nil is a valid outcome, not an error
func FirstStep(flow *api.Flow) *api.Step {
	var first *api.Step
	for _, step := range flow.Steps {
		if step.Entry {
			return step
		}
		if first == nil || step.Order < first.Order {
			first = step
		}
	}
	return first
}

// NextStep resolves the step reached from current given raw user input.
// Branches are evaluated in definition order and the first match wins.
// Unmatched input yields nil, never an error. A branch that targets a step
// missing from the flow also yields nil; the caller treats it as no match,
// since a stuck prompt beats advancing a session into a step that cannot
// be delivered
func NextStep(flow *api.Flow, current *api.Step, input string) *api.Step {
	for i := range current.Branches {
		b := &current.Branches[i]
		if !b.Matches(input) {
			continue
		}
		return flow.StepByID(b.Next)
	}
	return nil
}
