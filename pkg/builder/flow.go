// Package builder provides fluent construction of flow definitions. The
// builders are immutable; every With method returns a copy, so partial
// flows can be shared and specialized safely.
package builder

import "github.com/convoflow/engine/pkg/api"

// Flow is a builder for conversation flow definitions
type Flow struct {
	id    api.FlowID
	name  string
	steps []*Step
}

// NewFlow creates a new flow builder with the specified ID and name
func NewFlow(id api.FlowID, name string) *Flow {
	return &Flow{
		id:    id,
		name:  name,
		steps: []*Step{},
	}
}

// WithStep appends a step to the flow
func (f *Flow) WithStep(step *Step) *Flow {
	res := *f
	res.steps = make([]*Step, len(f.steps)+1)
	copy(res.steps, f.steps)
	res.steps[len(f.steps)] = step
	return &res
}

// Build produces the flow definition. Steps receive the flow's ID and an
// order matching their position in the builder
func (f *Flow) Build() *api.Flow {
	flow := &api.Flow{
		ID:   f.id,
		Name: f.name,
	}
	for i, step := range f.steps {
		flow.Steps = append(flow.Steps, step.build(f.id, i))
	}
	return flow
}
