package scout

import "strings"

// buildTaskPrompt composes the provider task prompt. When a result action is
// present, the agent is told it is a future step it must not perform itself,
// but that its output has to carry everything that step will need.
func buildTaskPrompt(instructions string, resultAction *string) string {
	var b strings.Builder
	b.WriteString(instructions)
	if resultAction != nil && strings.TrimSpace(*resultAction) != "" {
		b.WriteString("\n\nIMPORTANT: After you finish, a separate follow-up step will: ")
		b.WriteString(strings.TrimSpace(*resultAction))
		b.WriteString("\nDo NOT perform that step yourself. ")
		b.WriteString("Make sure your final output contains all the information that follow-up step will need.")
	}
	return b.String()
}
