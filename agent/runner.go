package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/interrupt"
	"github.com/tbxark/formchat/tools"
)

const DefaultMaxSteps = 8

type Config struct {
	Model model.ToolCallingChatModel
	// Tools defaults to tools.New().
	Tools []tool.InvokableTool
	// Store defaults to an in-memory store.
	Store *CheckpointStore
	// Instructions lists what to collect; defaults to DefaultInstructions.
	Instructions string
	Trimmer      Trimmer
	// MaxSteps bounds model calls per turn; defaults to DefaultMaxSteps.
	MaxSteps int
	Now      func() time.Time
}

// Response is the outcome of one turn.
type Response struct {
	SessionID string         `json:"session_id"`
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Interrupt *field.Request `json:"interrupt,omitempty"`
}

// Runner drives the tool calling loop of every session. All session state
// lives in the checkpoint store, so any Runner sharing the store can
// continue a conversation started by another.
type Runner struct {
	model        model.ToolCallingChatModel
	tools        map[string]tool.InvokableTool
	store        *CheckpointStore
	instructions string
	trimmer      Trimmer
	maxSteps     int
	now          func() time.Time
}

func NewRunner(ctx context.Context, cfg *Config) (*Runner, error) {
	if cfg == nil || cfg.Model == nil {
		return nil, errors.New("chat model is required")
	}
	ts := cfg.Tools
	if len(ts) == 0 {
		var err error
		ts, err = tools.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create tools: %w", err)
		}
	}
	infos, err := tools.Infos(ctx, ts)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]tool.InvokableTool, len(ts))
	for i, info := range infos {
		if _, dup := byName[info.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", info.Name)
		}
		byName[info.Name] = ts[i]
	}
	bound, err := cfg.Model.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	r := &Runner{
		model:        bound,
		tools:        byName,
		store:        cfg.Store,
		instructions: cfg.Instructions,
		trimmer:      cfg.Trimmer,
		maxSteps:     cfg.MaxSteps,
		now:          cfg.Now,
	}
	if r.store == nil {
		r.store = NewMemoryCheckpointStore()
	}
	if r.maxSteps <= 0 {
		r.maxSteps = DefaultMaxSteps
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Store returns the checkpoint store the runner persists to.
func (r *Runner) Store() *CheckpointStore {
	return r.store
}

// Chat starts a new turn with a user message. A pending request of the
// session is closed as skipped.
func (r *Runner) Chat(ctx context.Context, sessionID, text string) (*Response, error) {
	ctx = callbacks.EnsureRunInfo(ctx, "FormChat", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"session_id": sessionID,
		"input":      text,
	})
	resp, err := r.chat(ctx, sessionID, text)
	return r.done(ctx, resp, err)
}

// Resume answers the pending request of a session and continues the loop.
// A payload that does not fit the pending field is rejected with a
// *field.ValidationError and the session stays suspended.
func (r *Runner) Resume(ctx context.Context, sessionID string, payload any) (*Response, error) {
	ctx = callbacks.EnsureRunInfo(ctx, "FormChat", "Agent")
	ctx = callbacks.OnStart(ctx, map[string]any{
		"session_id": sessionID,
		"resume":     payload,
	})
	resp, err := r.resume(ctx, sessionID, payload)
	return r.done(ctx, resp, err)
}

// State returns the stored checkpoint of a session.
func (r *Runner) State(ctx context.Context, sessionID string) (*Checkpoint, error) {
	cp, ok, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
	}
	return cp, nil
}

// Forget drops a collected answer so the model asks for it again. The
// rest of the session, including a pending request, is left as is.
func (r *Runner) Forget(ctx context.Context, sessionID, question string) (*Checkpoint, error) {
	cp, err := r.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, ok := cp.Answers[question]; !ok {
		return nil, fmt.Errorf("%w: %q in session %q", ErrUnknownAnswer, question, sessionID)
	}
	sheet, err := cp.Answers.Forget(question)
	if err != nil {
		return nil, err
	}
	cp.Answers = sheet
	cp.UpdatedAt = r.now()
	if err := r.store.Save(ctx, cp); err != nil {
		return nil, err
	}
	slog.Debug("Forgot answer", "session_id", sessionID, "question", question)
	return cp, nil
}

func (r *Runner) done(ctx context.Context, resp *Response, err error) (*Response, error) {
	if err != nil {
		callbacks.OnError(ctx, err)
		return nil, err
	}
	callbacks.OnEnd(ctx, map[string]any{
		"response": resp,
		"status":   string(resp.Status),
	})
	return resp, nil
}

func (r *Runner) chat(ctx context.Context, sessionID, text string) (*Response, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	cp, ok, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		cp = NewCheckpoint(sessionID, r.now())
	}
	if cp.Pending != nil {
		slog.Debug("Skipping pending request", "session_id", sessionID, "request_id", cp.Pending.Request.ID)
		cp.skipPending()
	}
	cp.Status = StatusRunning
	cp.Today = civil.DateOf(r.now())
	cp.Messages = append(cp.Messages, schema.UserMessage(text))
	return r.loop(ctx, cp)
}

func (r *Runner) resume(ctx context.Context, sessionID string, payload any) (*Response, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}
	cp, ok, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSession, sessionID)
	}
	if cp.Pending == nil {
		return nil, fmt.Errorf("%w: session %q", ErrNoSuspensionPending, sessionID)
	}
	pending := cp.Pending
	if err := field.MatchRequest(pending.Request, payload); err != nil {
		return nil, err
	}
	if pending.Request.Type == field.RequestTypeField {
		if _, err := field.Parse(pending.Request.Field, payload); err != nil {
			return nil, err
		}
	}
	slog.Debug("Resuming", "session_id", sessionID, "tool", pending.ToolCall.Function.Name, "request_id", pending.Request.ID)

	cp.Pending = nil
	cp.Status = StatusRunning
	calls := append([]schema.ToolCall{pending.ToolCall}, pending.Queued...)
	suspended, err := r.executeCalls(ctx, cp, calls, &resumption{request: pending.Request, payload: payload})
	if err != nil {
		return nil, err
	}
	if suspended {
		return r.finish(ctx, cp, "")
	}
	return r.loop(ctx, cp)
}

type resumption struct {
	request *field.Request
	payload any
}

func (r *Runner) loop(ctx context.Context, cp *Checkpoint) (*Response, error) {
	for step := 0; step < r.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		input := r.modelInput(cp)
		slog.Debug("Generating", "session_id", cp.SessionID, "step", step+1, "messages", len(input))
		msg, err := r.model.Generate(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to generate: %w", err)
		}
		if msg.Role == "" {
			msg.Role = schema.Assistant
		}
		cp.Messages = append(cp.Messages, msg)
		cp.Steps++

		if len(msg.ToolCalls) == 0 {
			cp.Status = StatusCompleted
			slog.Debug("Completed", "session_id", cp.SessionID, "steps", step+1)
			return r.finish(ctx, cp, msg.Content)
		}
		suspended, err := r.executeCalls(ctx, cp, msg.ToolCalls, nil)
		if err != nil {
			return nil, err
		}
		if suspended {
			return r.finish(ctx, cp, msg.Content)
		}
	}
	return nil, fmt.Errorf("%w: %d model calls in session %q", ErrMaxStepsExceeded, r.maxSteps, cp.SessionID)
}

// executeCalls runs tool calls in order and appends their results. It stops
// at the first call that suspends and records it as pending.
func (r *Runner) executeCalls(ctx context.Context, cp *Checkpoint, calls []schema.ToolCall, resume *resumption) (bool, error) {
	recordCtx := tools.WithRecorder(ctx, func(_ context.Context, answer *field.Answer) error {
		sheet, err := cp.Answers.Record(answer, r.now())
		if err != nil {
			return err
		}
		cp.Answers = sheet
		return nil
	})
	for i, call := range calls {
		callCtx := recordCtx
		if i == 0 && resume != nil {
			callCtx = interrupt.WithResumeFor(recordCtx, resume.request, resume.payload)
		}
		content, err := r.invoke(callCtx, call)
		if ie, ok := interrupt.As(err); ok {
			req := requestFromInfo(ie.Info)
			slog.Debug("Suspending", "session_id", cp.SessionID, "tool", call.Function.Name, "request_id", req.ID)
			cp.suspend(call, calls[i+1:], req, r.now())
			return true, nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			slog.Debug("Tool failed", "session_id", cp.SessionID, "tool", call.Function.Name, "error", err)
			content = "error: " + err.Error()
		}
		cp.Messages = append(cp.Messages, schema.ToolMessage(content, call.ID, schema.WithToolName(call.Function.Name)))
	}
	return false, nil
}

func (r *Runner) invoke(ctx context.Context, call schema.ToolCall) (string, error) {
	t, ok := r.tools[call.Function.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
	return t.InvokableRun(ctx, call.Function.Arguments)
}

func (r *Runner) modelInput(cp *Checkpoint) []*schema.Message {
	history := cp.Messages
	if r.trimmer != nil {
		history = r.trimmer.Trim(history)
	}
	today := cp.Today
	if !today.IsValid() {
		today = civil.DateOf(r.now())
	}
	input := make([]*schema.Message, 0, len(history)+1)
	input = append(input, schema.SystemMessage(BuildSystemPrompt(r.instructions, cp.Answers, today)))
	return append(input, history...)
}

func (r *Runner) finish(ctx context.Context, cp *Checkpoint, message string) (*Response, error) {
	cp.UpdatedAt = r.now()
	if err := r.store.Save(ctx, cp); err != nil {
		return nil, err
	}
	resp := &Response{
		SessionID: cp.SessionID,
		Status:    cp.Status,
		Message:   message,
	}
	if cp.Pending != nil {
		resp.Interrupt = cp.Pending.Request
	}
	return resp, nil
}

// requestFromInfo normalizes whatever a tool suspended with into a request.
func requestFromInfo(info any) *field.Request {
	switch v := info.(type) {
	case *field.Request:
		if v != nil {
			return v
		}
	case field.Request:
		return &v
	case field.Field:
		return field.NewRequest(v)
	case string:
		return field.RequestPrompt(v)
	}
	return field.RequestPrompt(fmt.Sprint(info))
}
