package textgen

import (
	"fmt"
	"strings"

	"github.com/gokigennote/gokigen/internal/client/models"
)

const defaultNextStep = "Resting today is already enough."

// EmpathyPrompt asks for an empathy message and a small next step.
func EmpathyPrompt(text string) string {
	return fmt.Sprintf(`You are a counselor who stays close to people having a hard time.
The user wrote:
"%s"

Reply with exactly two parts:
1) Empathy: kind words that acknowledge their effort without judging them.
2) Next step: one low-effort thing they could do today, such as three deep breaths or a warm drink.`, text)
}

// ParseEmpathy splits a reply into its two numbered parts. A reply without
// a second part gets a default next step.
func ParseEmpathy(reply string) (empathy, nextStep string) {
	parts := strings.SplitN(reply, "2)", 2)
	empathy = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "1)"))
	if len(parts) < 2 {
		return empathy, defaultNextStep
	}
	nextStep = strings.TrimSpace(parts[1])
	if nextStep == "" {
		nextStep = defaultNextStep
	}
	return empathy, nextStep
}

// ReformulationPrompt asks for a rewrite aimed at a purpose, audience and tone.
func ReformulationPrompt(text string, c models.ReformulationContext) string {
	return fmt.Sprintf(`Rewrite the message below so the writer can send it.
Goal: %s
Reader: %s
Tone: %s
Keep the writer's meaning, keep it short, and reply with the rewritten message only.

Message:
"%s"`, c.Purpose, c.Audience, c.Tone, text)
}
