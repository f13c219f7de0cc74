package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type (
	// MatchKind selects how a branch compares user input against its rule
	MatchKind string

	// Branch maps expected user input to the next step of a flow. Exactly
	// one match kind applies per branch; branches are evaluated in the
	// order they appear on the step and the first match wins
	Branch struct {
		Kind     MatchKind `json:"kind"`
		Value    string    `json:"value,omitempty"`
		Min      int64     `json:"min,omitempty"`
		Max      int64     `json:"max,omitempty"`
		FoldCase bool      `json:"fold_case,omitempty"`
		Next     StepID    `json:"next"`
	}

	// Step is one node of a conversation flow. The prompt and options are
	// rendered to the user on delivery; branches decide where the next
	// inbound message takes the session. Terminal steps complete the
	// session when reached
	Step struct {
		ID       StepID   `json:"id"`
		FlowID   FlowID   `json:"flow_id"`
		Prompt   string   `json:"prompt"`
		Options  []string `json:"options,omitempty"`
		Branches []Branch `json:"branches,omitempty"`
		Order    int      `json:"order"`
		Entry    bool     `json:"entry,omitempty"`
		Terminal bool     `json:"terminal,omitempty"`
	}
)

const (
	// MatchExact matches input equal to the branch value, optionally case
	// folded. Input is trimmed of surrounding whitespace before matching
	MatchExact MatchKind = "exact"

	// MatchNumber matches input that parses as an integer within the
	// branch's inclusive [Min, Max] range
	MatchNumber MatchKind = "number"

	// MatchAny is the default branch; it matches any input
	MatchAny MatchKind = "any"
)

var (
	ErrStepIDEmpty        = errors.New("step ID empty")
	ErrStepFlowEmpty      = errors.New("step flow ID empty")
	ErrStepPromptEmpty    = errors.New("step prompt empty")
	ErrInvalidMatchKind   = errors.New("invalid match kind")
	ErrBranchValueEmpty   = errors.New("branch value empty")
	ErrBranchNextEmpty    = errors.New("branch next step empty")
	ErrBranchRangeInvalid = errors.New("branch min must be <= max")
)

// Validate checks that a step and all of its branches are well formed
func (s *Step) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if s.FlowID == "" {
		return ErrStepFlowEmpty
	}
	if s.Prompt == "" {
		return fmt.Errorf("%w: %s", ErrStepPromptEmpty, s.ID)
	}
	for i := range s.Branches {
		if err := s.Branches[i].Validate(); err != nil {
			return fmt.Errorf("%w: step %s", err, s.ID)
		}
	}
	return nil
}

// Validate checks that a branch is well formed for its match kind
func (b *Branch) Validate() error {
	if b.Next == "" {
		return ErrBranchNextEmpty
	}

	switch b.Kind {
	case MatchExact:
		if b.Value == "" {
			return ErrBranchValueEmpty
		}
	case MatchNumber:
		if b.Min > b.Max {
			return ErrBranchRangeInvalid
		}
	case MatchAny:
		// no configuration
	default:
		return fmt.Errorf("%w: %s", ErrInvalidMatchKind, b.Kind)
	}
	return nil
}

// Matches reports whether the given raw user input satisfies this branch.
// Unparseable input never matches a number branch; it is not an error
func (b *Branch) Matches(input string) bool {
	text := strings.TrimSpace(input)

	switch b.Kind {
	case MatchExact:
		if b.FoldCase {
			return strings.EqualFold(text, b.Value)
		}
		return text == b.Value

	case MatchNumber:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return false
		}
		return n >= b.Min && n <= b.Max

	case MatchAny:
		return true
	}
	return false
}

// Equal reports whether two steps carry the same definition
func (s *Step) Equal(other *Step) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.ID != other.ID || s.FlowID != other.FlowID {
		return false
	}
	if s.Prompt != other.Prompt || s.Order != other.Order {
		return false
	}
	if s.Entry != other.Entry || s.Terminal != other.Terminal {
		return false
	}
	if len(s.Options) != len(other.Options) {
		return false
	}
	for i, o := range s.Options {
		if o != other.Options[i] {
			return false
		}
	}
	if len(s.Branches) != len(other.Branches) {
		return false
	}
	for i, b := range s.Branches {
		if b != other.Branches[i] {
			return false
		}
	}
	return true
}
