package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes a Runner as an eino adk.Agent. The session is taken from
// WithSessionID; WithResumePayload turns the run into a resume.
type Agent struct {
	name        string
	description string
	runner      *Runner
}

func NewAgent(name, description string, runner *Runner) *Agent {
	return &Agent{
		name:        name,
		description: description,
		runner:      runner,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					AgentName: a.name,
					Err:       fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		resp, err := a.invoke(ctx, input)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				AgentName: a.name,
				Err:       err,
			})
			return
		}
		gen.Send(a.event(resp))
	}()
	return iter
}

func (a *Agent) invoke(ctx context.Context, input *adk.AgentInput) (*Response, error) {
	sessionID := sessionIDOrDefault(ctx)
	if payload, ok := resumePayloadFromContext(ctx); ok {
		resp, err := a.runner.Resume(ctx, sessionID, payload)
		if err != nil {
			return nil, fmt.Errorf("resume failed: %w", err)
		}
		return resp, nil
	}
	if input == nil || len(input.Messages) == 0 {
		return nil, errors.New("no messages in input")
	}
	resp, err := a.runner.Chat(ctx, sessionID, input.Messages[len(input.Messages)-1].Content)
	if err != nil {
		return nil, fmt.Errorf("chat failed: %w", err)
	}
	return resp, nil
}

func (a *Agent) event(resp *Response) *adk.AgentEvent {
	content := resp.Message
	if resp.Interrupt != nil && content == "" {
		content = describeRequest(resp)
	}
	event := &adk.AgentEvent{
		AgentName: a.name,
		Output: &adk.AgentOutput{
			MessageOutput: &adk.MessageVariant{
				IsStreaming: false,
				Message: &schema.Message{
					Role:    schema.Assistant,
					Content: content,
				},
				Role: schema.Assistant,
			},
		},
	}
	if resp.Interrupt != nil {
		event.Action = &adk.AgentAction{
			Interrupted: &adk.InterruptInfo{Data: resp.Interrupt},
		}
	}
	return event
}

func describeRequest(resp *Response) string {
	req := resp.Interrupt
	if req.Field != nil {
		return req.Field.FieldDescription()
	}
	return req.Prompt
}
