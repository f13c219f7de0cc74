package delivery

import (
	"fmt"
	"strings"

	"github.com/convoflow/engine/pkg/api"
)

// RenderStep produces the message body for a step: the prompt followed by
// its numbered menu options, one per line
func RenderStep(step *api.Step) string {
	if len(step.Options) == 0 {
		return step.Prompt
	}

	var b strings.Builder
	b.WriteString(step.Prompt)
	for i, opt := range step.Options {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, opt))
	}
	return b.String()
}
