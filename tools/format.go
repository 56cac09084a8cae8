package tools

import (
	"fmt"

	"github.com/tbxark/formchat/field"
)

// FormatAnswer renders an answer as the tool result the model sees.
func FormatAnswer(a *field.Answer) string {
	switch a.Type {
	case field.TypeText:
		return fmt.Sprintf("Text: %s", a.Value)
	case field.TypeNumber:
		return "Number: " + field.FormatValue(a.Value)
	case field.TypeDate:
		return "Date: " + field.FormatValue(a.Value)
	case field.TypeCheckbox, field.TypeRadio:
		return "Selected: " + field.FormatValue(a.Value)
	default:
		return fmt.Sprintf("Result: %v", a.Value)
	}
}
