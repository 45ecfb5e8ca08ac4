package ai

import "strings"

// BuildUserPrompt renders the task list the model is asked to order.
func BuildUserPrompt(in PrioritizationInput) string {
	var b strings.Builder

	b.WriteString("Given the following list of tasks:\n\n")

	for _, t := range in.Tasks {
		b.WriteString("- ID: ")
		b.WriteString(t.ID)
		b.WriteString("\n")

		b.WriteString("  Description: ")
		b.WriteString(oneLine(t.Description))
		b.WriteString("\n")

		b.WriteString("  Deadline: ")
		b.WriteString(t.Deadline)
		b.WriteString("\n")

		b.WriteString("  Importance: ")
		b.WriteString(t.Importance)
		b.WriteString("\n")

		b.WriteString("  Type: ")
		b.WriteString(t.Type)
		b.WriteString("\n")
	}

	b.WriteString("\nPrioritize these tasks.")
	return b.String()
}

// oneLine keeps a multi-line description inside its list item.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
