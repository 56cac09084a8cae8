package agent

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func roles(msgs []*schema.Message) []schema.RoleType {
	out := make([]schema.RoleType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestKeepSystemLastNTrimmer(t *testing.T) {
	call := []schema.ToolCall{{ID: "c1"}}
	history := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("u1"),
		schema.AssistantMessage("", call),
		schema.ToolMessage("r1", "c1"),
		nil,
		schema.AssistantMessage("a1", nil),
		schema.UserMessage("u2"),
	}

	assert.Len(t, KeepSystemLastNTrimmer{}.Trim(history), 6)
	assert.Len(t, KeepSystemLastNTrimmer{N: 10}.Trim(history), 6)

	got := KeepSystemLastNTrimmer{N: 2}.Trim(history)
	assert.Equal(t, []schema.RoleType{schema.System, schema.Assistant, schema.User}, roles(got))

	got = KeepSystemLastNTrimmer{N: 3}.Trim(history)
	assert.Equal(t, []schema.RoleType{schema.System, schema.Assistant, schema.User}, roles(got))
	assert.Equal(t, "a1", got[1].Content)

	got = KeepSystemLastNTrimmer{N: 4}.Trim(history)
	assert.Equal(t, []schema.RoleType{schema.System, schema.Assistant, schema.Tool, schema.Assistant, schema.User}, roles(got))
}
