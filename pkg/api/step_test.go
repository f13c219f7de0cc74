package api_test

import (
	"testing"

	"github.com/convoflow/engine/internal/assert"
	"github.com/convoflow/engine/pkg/api"
)

func TestStepValidation(t *testing.T) {
	as := assert.New(t)

	tests := []struct {
		step          *api.Step
		name          string
		errorContains string
		expectError   bool
	}{
		{
			name: "valid_step",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
				Prompt: "Pick one",
				Branches: []api.Branch{
					{Kind: api.MatchExact, Value: "1", Next: "S2"},
				},
			},
			expectError: false,
		},
		{
			name: "valid_terminal_step",
			step: &api.Step{
				ID:       "S2",
				FlowID:   "F1",
				Prompt:   "Goodbye",
				Terminal: true,
			},
			expectError: false,
		},
		{
			name: "missing_id",
			step: &api.Step{
				FlowID: "F1",
				Prompt: "Pick one",
			},
			expectError:   true,
			errorContains: "ID empty",
		},
		{
			name: "missing_flow_id",
			step: &api.Step{
				ID:     "S1",
				Prompt: "Pick one",
			},
			expectError:   true,
			errorContains: "flow ID empty",
		},
		{
			name: "missing_prompt",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
			},
			expectError:   true,
			errorContains: "prompt empty",
		},
		{
			name: "branch_missing_next",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
				Prompt: "Pick one",
				Branches: []api.Branch{
					{Kind: api.MatchExact, Value: "1"},
				},
			},
			expectError:   true,
			errorContains: "next step empty",
		},
		{
			name: "exact_branch_missing_value",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
				Prompt: "Pick one",
				Branches: []api.Branch{
					{Kind: api.MatchExact, Next: "S2"},
				},
			},
			expectError:   true,
			errorContains: "value empty",
		},
		{
			name: "number_branch_inverted_range",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
				Prompt: "Pick one",
				Branches: []api.Branch{
					{Kind: api.MatchNumber, Min: 5, Max: 1, Next: "S2"},
				},
			},
			expectError:   true,
			errorContains: "min must be <= max",
		},
		{
			name: "unknown_match_kind",
			step: &api.Step{
				ID:     "S1",
				FlowID: "F1",
				Prompt: "Pick one",
				Branches: []api.Branch{
					{Kind: "regex", Value: ".*", Next: "S2"},
				},
			},
			expectError:   true,
			errorContains: "invalid match kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			if tt.expectError {
				as.StepInvalid(tt.step, tt.errorContains)
			} else {
				as.StepValid(tt.step)
			}
		})
	}
}

func TestBranchMatches(t *testing.T) {
	as := assert.New(t)

	tests := []struct {
		name    string
		branch  api.Branch
		input   string
		matches bool
	}{
		{
			name:    "exact_match",
			branch:  api.Branch{Kind: api.MatchExact, Value: "1", Next: "S2"},
			input:   "1",
			matches: true,
		},
		{
			name:    "exact_mismatch",
			branch:  api.Branch{Kind: api.MatchExact, Value: "1", Next: "S2"},
			input:   "2",
			matches: false,
		},
		{
			name:    "exact_trims_whitespace",
			branch:  api.Branch{Kind: api.MatchExact, Value: "1", Next: "S2"},
			input:   "  1  ",
			matches: true,
		},
		{
			name: "exact_case_sensitive_by_default",
			branch: api.Branch{
				Kind: api.MatchExact, Value: "yes", Next: "S2",
			},
			input:   "YES",
			matches: false,
		},
		{
			name: "exact_fold_case",
			branch: api.Branch{
				Kind: api.MatchExact, Value: "yes", FoldCase: true, Next: "S2",
			},
			input:   "YES",
			matches: true,
		},
		{
			name: "number_in_range",
			branch: api.Branch{
				Kind: api.MatchNumber, Min: 1, Max: 5, Next: "S2",
			},
			input:   "3",
			matches: true,
		},
		{
			name: "number_at_bounds",
			branch: api.Branch{
				Kind: api.MatchNumber, Min: 1, Max: 5, Next: "S2",
			},
			input:   "5",
			matches: true,
		},
		{
			name: "number_out_of_range",
			branch: api.Branch{
				Kind: api.MatchNumber, Min: 1, Max: 5, Next: "S2",
			},
			input:   "6",
			matches: false,
		},
		{
			name: "number_unparseable",
			branch: api.Branch{
				Kind: api.MatchNumber, Min: 1, Max: 5, Next: "S2",
			},
			input:   "three",
			matches: false,
		},
		{
			name: "number_negative",
			branch: api.Branch{
				Kind: api.MatchNumber, Min: -10, Max: -1, Next: "S2",
			},
			input:   "-5",
			matches: true,
		},
		{
			name:    "any_matches_everything",
			branch:  api.Branch{Kind: api.MatchAny, Next: "S2"},
			input:   "whatever",
			matches: true,
		},
		{
			name:    "any_matches_empty",
			branch:  api.Branch{Kind: api.MatchAny, Next: "S2"},
			input:   "",
			matches: true,
		},
		{
			name:    "unknown_kind_never_matches",
			branch:  api.Branch{Kind: "regex", Value: ".*", Next: "S2"},
			input:   "anything",
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			as.Equal(tt.matches, tt.branch.Matches(tt.input))
		})
	}
}

func TestStepEqual(t *testing.T) {
	as := assert.New(t)

	step := &api.Step{
		ID:      "S1",
		FlowID:  "F1",
		Prompt:  "Pick one",
		Options: []string{"English", "Urdu"},
		Branches: []api.Branch{
			{Kind: api.MatchExact, Value: "1", Next: "S2"},
		},
	}

	same := *step
	as.True(step.Equal(&same))

	diff := *step
	diff.Prompt = "Pick another"
	as.False(step.Equal(&diff))

	var nilStep *api.Step
	as.False(step.Equal(nilStep))
	as.True(nilStep.Equal(nil))
}
