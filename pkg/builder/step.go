package builder

import "github.com/convoflow/engine/pkg/api"

// Step is a builder for flow steps
type Step struct {
	id       api.StepID
	prompt   string
	options  []string
	branches []api.Branch
	entry    bool
	terminal bool
}

// NewStep creates a new step builder with the specified ID and prompt
func NewStep(id api.StepID, prompt string) *Step {
	return &Step{
		id:     id,
		prompt: prompt,
	}
}

// WithOptions sets the menu options rendered beneath the prompt
func (s *Step) WithOptions(options ...string) *Step {
	res := *s
	res.options = make([]string, len(options))
	copy(res.options, options)
	return &res
}

// OnExact adds a branch matching input equal to value
func (s *Step) OnExact(value string, next api.StepID) *Step {
	return s.withBranch(api.Branch{
		Kind:  api.MatchExact,
		Value: value,
		Next:  next,
	})
}

// OnExactFold adds a case-insensitive exact-match branch
func (s *Step) OnExactFold(value string, next api.StepID) *Step {
	return s.withBranch(api.Branch{
		Kind:     api.MatchExact,
		Value:    value,
		FoldCase: true,
		Next:     next,
	})
}

// OnNumber adds a branch matching integers in the inclusive [min, max]
// range
func (s *Step) OnNumber(min, max int64, next api.StepID) *Step {
	return s.withBranch(api.Branch{
		Kind: api.MatchNumber,
		Min:  min,
		Max:  max,
		Next: next,
	})
}

// OnAny adds a default branch matching any input. Place it last; branches
// are evaluated in order
func (s *Step) OnAny(next api.StepID) *Step {
	return s.withBranch(api.Branch{
		Kind: api.MatchAny,
		Next: next,
	})
}

// AsEntry marks the step as the flow's entry point
func (s *Step) AsEntry() *Step {
	res := *s
	res.entry = true
	return &res
}

// AsTerminal marks the step as completing the session when reached
func (s *Step) AsTerminal() *Step {
	res := *s
	res.terminal = true
	return &res
}

func (s *Step) withBranch(b api.Branch) *Step {
	res := *s
	res.branches = make([]api.Branch, len(s.branches)+1)
	copy(res.branches, s.branches)
	res.branches[len(s.branches)] = b
	return &res
}

func (s *Step) build(flowID api.FlowID, order int) *api.Step {
	step := &api.Step{
		ID:       s.id,
		FlowID:   flowID,
		Prompt:   s.prompt,
		Order:    order,
		Entry:    s.entry,
		Terminal: s.terminal,
	}
	if len(s.options) > 0 {
		step.Options = append([]string{}, s.options...)
	}
	if len(s.branches) > 0 {
		step.Branches = append([]api.Branch{}, s.branches...)
	}
	return step
}
