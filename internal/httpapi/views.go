package httpapi

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/patch"
)

type interruptView struct {
	ID    string         `json:"id"`
	Value *field.Request `json:"value"`
}

type turnView struct {
	SessionID  string          `json:"session_id"`
	Status     agent.Status    `json:"status"`
	Message    string          `json:"message,omitempty"`
	Interrupts []interruptView `json:"__interrupt__,omitempty"`
	Messages   []messageView   `json:"messages"`
	Answers    patch.Sheet     `json:"answers,omitempty"`
}

type stateView struct {
	SessionID string         `json:"session_id"`
	Status    agent.Status   `json:"status"`
	Pending   *field.Request `json:"pending,omitempty"`
	Messages  []messageView  `json:"messages"`
	Answers   patch.Sheet    `json:"answers,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type toolCallView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Args is the decoded argument object, or the raw text when it is not JSON.
	Args any `json:"args"`
}

// messageView follows the message shape the chat frontend renders.
type messageView struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCallView `json:"tool_calls,omitempty"`
}

func messageViews(msgs []*schema.Message) []messageView {
	out := make([]messageView, 0, len(msgs))
	for i, m := range msgs {
		if m == nil {
			continue
		}
		v := messageView{
			ID:         fmt.Sprintf("msg_%d", i),
			Content:    m.Content,
			Name:       m.ToolName,
			ToolCallID: m.ToolCallID,
		}
		switch m.Role {
		case schema.User:
			v.Type = "human"
		case schema.Assistant:
			v.Type = "ai"
		case schema.Tool:
			v.Type = "tool"
		default:
			v.Type = string(m.Role)
		}
		for _, tc := range m.ToolCalls {
			v.ToolCalls = append(v.ToolCalls, toolCallView{ID: tc.ID, Name: tc.Function.Name, Args: toolArgs(tc.Function.Arguments)})
		}
		out = append(out, v)
	}
	return out
}

func newStateView(cp *agent.Checkpoint) stateView {
	v := stateView{
		SessionID: cp.SessionID,
		Status:    cp.Status,
		Messages:  messageViews(cp.Messages),
		Answers:   cp.Answers,
		UpdatedAt: cp.UpdatedAt,
	}
	if cp.Pending != nil {
		v.Pending = cp.Pending.Request
	}
	return v
}

func toolArgs(raw string) any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := sonic.UnmarshalString(raw, &args); err != nil {
		return raw
	}
	return args
}
