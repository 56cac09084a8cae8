package agent

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/tbxark/formchat/patch"
)

const DefaultInstructions = `1. User's name - text
2. User's age - number`

const basePrompt = `You are the agent who requires the user to provide the information listed below.

After the user has provided all information, summarize it for the user.
You can also be asked to amend information.

Use the appropriate tools to request the user to provide missing information or amend it.
When asked to provide information, ask one by one.
Never invent answers: every value must come from a tool result.`

// BuildSystemPrompt assembles the system message for one model call.
func BuildSystemPrompt(instructions string, answers patch.Sheet, today civil.Date) string {
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	sections := []string{
		basePrompt,
		fmt.Sprintf("# Information to collect:\n%s", instructions),
		fmt.Sprintf("# Current Date:\n%s", today),
	}
	if table := answers.Markdown(); table != "" {
		sections = append(sections, "# Collected answers:\n"+table)
	}
	return strings.Join(sections, "\n\n")
}
