package patch

import (
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/tbxark/formchat/field"
)

// Record stores answer under its question. Asking the same question again
// amends the previous entry.
func (s Sheet) Record(answer *field.Answer, at time.Time) (Sheet, error) {
	if s == nil {
		s = Sheet{}
	}
	op := Operation{
		Op:   OperationReplace,
		Path: Pointer(answer.Description),
		Value: Entry{
			FieldID:    answer.FieldID,
			Type:       answer.Type,
			Value:      entryValue(answer.Value),
			AnsweredAt: at.UTC(),
		},
	}
	return Apply(s, []Operation{op})
}

// Forget removes the answer to question, if any.
func (s Sheet) Forget(question string) (Sheet, error) {
	if s == nil {
		return s, nil
	}
	return Apply(s, []Operation{{Op: OperationRemove, Path: Pointer(question)}})
}

// Questions returns the recorded questions sorted by answer time.
func (s Sheet) Questions() []string {
	out := make([]string, 0, len(s))
	for q := range s {
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := s[out[i]].AnsweredAt, s[out[j]].AnsweredAt
		if a.Equal(b) {
			return out[i] < out[j]
		}
		return a.Before(b)
	})
	return out
}

// Markdown renders the sheet as a markdown table, or "" when empty.
func (s Sheet) Markdown() string {
	if len(s) == 0 {
		return ""
	}
	var buf strings.Builder
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Question", "Type", "Answer")
	for _, q := range s.Questions() {
		e := s[q]
		_ = table.Append(q, string(e.Type), field.FormatValue(e.Value))
	}
	_ = table.Render()
	return buf.String()
}

func entryValue(v any) any {
	if list, ok := v.([]string); ok {
		out := make([]string, len(list))
		copy(out, list)
		return out
	}
	return field.FormatValue(v)
}
