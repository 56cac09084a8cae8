// Package modeltest provides a scripted eino chat model for deterministic
// agent loop tests.
package modeltest

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Step produces one model reply from the input the model was given.
type Step func(input []*schema.Message) (*schema.Message, error)

type script struct {
	mu     sync.Mutex
	steps  []Step
	index  int
	inputs [][]*schema.Message
}

// Model replays a fixed list of steps. Models derived with WithTools share
// the same script, so several runners can consume one conversation.
type Model struct {
	script *script
	tools  []*schema.ToolInfo
}

var _ model.ToolCallingChatModel = (*Model)(nil)

func New(steps ...Step) *Model {
	cloned := make([]Step, len(steps))
	copy(cloned, steps)
	return &Model{script: &script{steps: cloned}}
}

func (m *Model) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	s := m.script
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*schema.Message, len(input))
	copy(snapshot, input)
	s.inputs = append(s.inputs, snapshot)

	if s.index >= len(s.steps) {
		return nil, fmt.Errorf("script exhausted at step %d", s.index+1)
	}
	step := s.steps[s.index]
	s.index++
	msg, err := step(snapshot)
	if err != nil {
		return nil, err
	}
	if msg.Role == "" {
		msg.Role = schema.Assistant
	}
	return msg, nil
}

func (m *Model) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *Model) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound := make([]*schema.ToolInfo, len(tools))
	copy(bound, tools)
	return &Model{script: m.script, tools: bound}, nil
}

// Tools returns the tool schemas bound with WithTools.
func (m *Model) Tools() []*schema.ToolInfo {
	return m.tools
}

// Inputs returns every message list the model was called with.
func (m *Model) Inputs() [][]*schema.Message {
	m.script.mu.Lock()
	defer m.script.mu.Unlock()
	out := make([][]*schema.Message, len(m.script.inputs))
	copy(out, m.script.inputs)
	return out
}

// Remaining reports how many steps have not been consumed.
func (m *Model) Remaining() int {
	m.script.mu.Lock()
	defer m.script.mu.Unlock()
	return len(m.script.steps) - m.script.index
}

func Reply(content string) Step {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(content, nil), nil
	}
}

func Fail(err error) Step {
	return func([]*schema.Message) (*schema.Message, error) {
		return nil, err
	}
}

// Call returns a step that requests the given tool calls.
func Call(calls ...schema.ToolCall) Step {
	return func([]*schema.Message) (*schema.Message, error) {
		cloned := make([]schema.ToolCall, len(calls))
		copy(cloned, calls)
		return schema.AssistantMessage("", cloned), nil
	}
}

func ToolCall(id, name, arguments string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}
