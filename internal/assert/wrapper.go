package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/convoflow/engine/internal/config"
	"github.com/convoflow/engine/pkg/api"
)

// Wrapper wraps testify assertions with Convoflow-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *assert.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 100 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus Convoflow-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    assert.New(t),
	}
}

// FlowValid asserts that a flow definition is valid
func (w *Wrapper) FlowValid(f *api.Flow) {
	w.Helper()
	w.NoError(f.Validate())
	w.NotEmpty(f.ID)
	w.NotEmpty(f.Name)
}

// FlowInvalid asserts that a flow is invalid and returns the validation
// error
func (w *Wrapper) FlowInvalid(f *api.Flow, expectedErrorContains string) error {
	w.Helper()
	err := f.Validate()
	w.Error(err)
	if err != nil && expectedErrorContains != "" {
		w.Contains(err.Error(), expectedErrorContains)
	}
	return err
}

// StepValid asserts that a step definition is valid
func (w *Wrapper) StepValid(s *api.Step) {
	w.Helper()
	w.NoError(s.Validate())
	w.NotEmpty(s.ID)
	w.NotEmpty(s.FlowID)
}

// StepInvalid asserts that a step is invalid and returns the validation
// error
func (w *Wrapper) StepInvalid(s *api.Step, expectedErrorContains string) error {
	w.Helper()
	err := s.Validate()
	w.Error(err)
	if err != nil && expectedErrorContains != "" {
		w.Contains(err.Error(), expectedErrorContains)
	}
	return err
}

// SessionAt asserts a session's current step and completion flag
func (w *Wrapper) SessionAt(
	sess *api.Session, stepID api.StepID, completed bool,
) {
	w.Helper()
	w.Equal(stepID, sess.CurrentStepID)
	w.Equal(completed, sess.Completed)
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= 65535)
	w.True(cfg.Delivery.TimeoutMs > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}
