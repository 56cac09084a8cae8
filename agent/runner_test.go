package agent

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/internal/modeltest"
	"github.com/tbxark/formchat/tools"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestRunner(t *testing.T, m *modeltest.Model, store *CheckpointStore, maxSteps int) *Runner {
	t.Helper()
	r, err := NewRunner(context.Background(), &Config{
		Model:    m,
		Store:    store,
		MaxSteps: maxSteps,
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return r
}

func answer(req *field.Request, key string, value any) map[string]any {
	return map[string]any{
		"id":   req.Field.FieldID(),
		"type": string(req.Field.FieldType()),
		key:    value,
	}
}

// expectToolResult asserts the last model input message is the given tool result.
func expectToolResult(t *testing.T, want string, reply modeltest.Step) modeltest.Step {
	return func(input []*schema.Message) (*schema.Message, error) {
		last := input[len(input)-1]
		assert.Equal(t, schema.Tool, last.Role)
		assert.Equal(t, want, last.Content)
		return reply(input)
	}
}

func TestChatSuspendResumeCompletes(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("call_1", tools.AskNumberName, `{"question":"Your age"}`)),
		expectToolResult(t, "Number: 12.50", modeltest.Reply("You are 12.50 years old.")),
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, resp.Status)
	require.NotNil(t, resp.Interrupt)
	assert.Equal(t, field.RequestTypeField, resp.Interrupt.Type)
	assert.Equal(t, field.TypeNumber, resp.Interrupt.Field.FieldType())
	assert.Equal(t, "Your age", resp.Interrupt.Field.FieldDescription())

	resp, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", "12.50"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, "You are 12.50 years old.", resp.Message)
	assert.Nil(t, resp.Interrupt)

	cp, err := r.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, cp.Status)
	assert.Nil(t, cp.Pending)
	assert.Equal(t, "12.50", cp.Answers["Your age"].Value)
	assert.Equal(t, 2, cp.Steps)
	require.Len(t, cp.Messages, 4)
	assert.Equal(t, schema.User, cp.Messages[0].Role)
	assert.Equal(t, "call_1", cp.Messages[2].ToolCallID)
	assert.Equal(t, 0, m.Remaining())
}

func TestResumeFromAnotherRunner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCheckpointStore()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("call_1", tools.AskRadioName, `{"question":"Payment method","options":["Credit card","Bank account","Cash"]}`)),
		expectToolResult(t, "Selected: Cash", modeltest.Reply("Cash it is.")),
	)

	first := newTestRunner(t, m, store, 0)
	resp, err := first.Chat(ctx, "s1", "I want to pay")
	require.NoError(t, err)
	req := resp.Interrupt
	require.NotNil(t, req)
	assert.Equal(t, []string{"Credit card", "Bank account", "Cash"}, field.Options(req.Field))

	second := newTestRunner(t, m, store, 0)
	resp, err = second.Resume(ctx, "s1", answer(req, "value", "Cash"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)

	cp, err := second.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, req.Field.FieldID(), cp.Answers["Payment method"].FieldID)
}

func TestResumeErrors(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(modeltest.Reply("Hello!"))
	r := newTestRunner(t, m, nil, 0)

	_, err := r.Resume(ctx, "nobody", map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownSession)

	resp, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)

	_, err = r.Resume(ctx, "s1", map[string]any{"id": "x", "type": "text", "value": "y"})
	assert.ErrorIs(t, err, ErrNoSuspensionPending)

	_, err = r.Chat(ctx, "", "hi")
	assert.ErrorIs(t, err, ErrEmptySessionID)
}

func TestInvalidResumeKeepsSuspension(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("call_1", tools.AskCheckboxName, `{"question":"Order","options":["Burger","Fries","Cake"]}`)),
		expectToolResult(t, "Selected: none", modeltest.Reply("Nothing ordered.")),
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "order")
	require.NoError(t, err)
	req := resp.Interrupt

	cases := []map[string]any{
		answer(req, "values", "Burger"),
		answer(req, "value", []any{"Burger"}),
		{"id": "other", "type": "checkbox", "values": []any{}},
		{"id": req.Field.FieldID(), "type": "radio", "value": "Burger"},
	}
	for _, payload := range cases {
		_, err := r.Resume(ctx, "s1", payload)
		var verr *field.ValidationError
		require.ErrorAs(t, err, &verr)
	}
	assert.Equal(t, 1, m.Remaining())

	cp, err := r.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, cp.Status)
	require.NotNil(t, cp.Pending)
	assert.Equal(t, req.ID, cp.Pending.Request.ID)

	resp, err = r.Resume(ctx, "s1", answer(req, "values", []any{}))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, []any{}, mustState(t, r, "s1").Answers["Order"].Value)
}

func mustState(t *testing.T, r *Runner, id string) *Checkpoint {
	t.Helper()
	cp, err := r.State(context.Background(), id)
	require.NoError(t, err)
	return cp
}

func TestSessionIsolation(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("a1", tools.AskNumberName, `{"question":"Your age"}`)),
		modeltest.Call(modeltest.ToolCall("b1", tools.AskDateName, `{"question":"Birthday"}`)),
		expectToolResult(t, "Number: 41", modeltest.Reply("A done")),
	)
	r := newTestRunner(t, m, nil, 0)

	a, err := r.Chat(ctx, "A", "hi")
	require.NoError(t, err)
	_, err = r.Resume(ctx, "B", answer(a.Interrupt, "value", 41))
	assert.ErrorIs(t, err, ErrUnknownSession)

	b, err := r.Chat(ctx, "B", "hi")
	require.NoError(t, err)
	assert.NotEqual(t, a.Interrupt.ID, b.Interrupt.ID)

	_, err = r.Resume(ctx, "B", answer(a.Interrupt, "value", 41))
	assert.ErrorIs(t, err, field.ErrValidation)

	resp, err := r.Resume(ctx, "A", answer(a.Interrupt, "value", 41))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)

	cpB := mustState(t, r, "B")
	assert.Equal(t, StatusSuspended, cpB.Status)
	assert.Equal(t, field.TypeDate, cpB.Pending.Request.Field.FieldType())
	assert.Empty(t, cpB.Answers)
}

func TestQueuedCallsRunAfterResume(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(
			modeltest.ToolCall("c1", tools.AskTextName, `{"question":"Your name"}`),
			modeltest.ToolCall("c2", tools.AskNumberName, `{"question":"Your age"}`),
		),
		func(input []*schema.Message) (*schema.Message, error) {
			n := len(input)
			assert.Equal(t, "Text: Ada", input[n-2].Content)
			assert.Equal(t, "c1", input[n-2].ToolCallID)
			assert.Equal(t, "Number: 36", input[n-1].Content)
			assert.Equal(t, "c2", input[n-1].ToolCallID)
			return schema.AssistantMessage("Ada, 36.", nil), nil
		},
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "start")
	require.NoError(t, err)
	assert.Equal(t, field.TypeText, resp.Interrupt.Field.FieldType())
	assert.Len(t, mustState(t, r, "s1").Pending.Queued, 1)

	resp, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, StatusSuspended, resp.Status)
	assert.Equal(t, field.TypeNumber, resp.Interrupt.Field.FieldType())

	resp, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", 36))
	require.NoError(t, err)
	assert.Equal(t, "Ada, 36.", resp.Message)

	sheet := mustState(t, r, "s1").Answers
	assert.Equal(t, []string{"Your age", "Your name"}, sortedKeys(sheet))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestChatWhileSuspendedSkipsPending(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("c1", tools.AskNumberName, `{"question":"Your age"}`)),
		func(input []*schema.Message) (*schema.Message, error) {
			n := len(input)
			assert.Equal(t, schema.Tool, input[n-2].Role)
			assert.Equal(t, "c1", input[n-2].ToolCallID)
			assert.Equal(t, skippedToolResult, input[n-2].Content)
			assert.Equal(t, tools.AskNumberName, input[n-2].ToolName)
			assert.Equal(t, schema.User, input[n-1].Role)
			return schema.AssistantMessage("Sure, let's change topic.", nil), nil
		},
	)
	r := newTestRunner(t, m, nil, 0)

	_, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	resp, err := r.Chat(ctx, "s1", "actually, something else")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Nil(t, mustState(t, r, "s1").Pending)
}

func TestToolErrorsAreReportedToModel(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("c1", tools.AskRadioName, `{"question":"Payment","options":[]}`)),
		func(input []*schema.Message) (*schema.Message, error) {
			last := input[len(input)-1]
			assert.Contains(t, last.Content, "error: ")
			assert.Contains(t, last.Content, "options must not be empty")
			return schema.AssistantMessage("", []schema.ToolCall{modeltest.ToolCall("c2", "ask_color", `{}`)}), nil
		},
		expectToolResult(t, `error: unknown tool "ask_color"`, modeltest.Reply("Giving up.")),
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "pay")
	require.NoError(t, err)
	assert.Equal(t, "Giving up.", resp.Message)
}

func TestMaxStepsExceededSavesNothing(t *testing.T) {
	ctx := context.Background()
	loopForever := modeltest.Call(modeltest.ToolCall("c", "missing_tool", `{}`))
	m := modeltest.New(loopForever, loopForever, loopForever)
	store := NewMemoryCheckpointStore()
	r := newTestRunner(t, m, store, 2)

	_, err := r.Chat(ctx, "s1", "hi")
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)
	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Remaining())
}

func TestModelErrorSavesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("upstream unavailable")
	m := modeltest.New(modeltest.Fail(boom))
	r := newTestRunner(t, m, nil, 0)

	_, err := r.Chat(ctx, "s1", "hi")
	assert.ErrorIs(t, err, boom)
	_, err = r.State(ctx, "s1")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestSystemPromptCarriesAnswers(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("c1", tools.AskTextName, `{"question":"Your name"}`)),
		func(input []*schema.Message) (*schema.Message, error) {
			require.Equal(t, schema.System, input[0].Role)
			assert.Contains(t, input[0].Content, "# Collected answers:")
			assert.Contains(t, input[0].Content, "Grace")
			assert.Contains(t, input[0].Content, "2025-03-14")
			return schema.AssistantMessage("Hi Grace.", nil), nil
		},
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	_, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", "Grace"))
	require.NoError(t, err)

	first := m.Inputs()[0][0]
	assert.NotContains(t, first.Content, "# Collected answers:")
}

func TestResumeKeepsTurnDate(t *testing.T) {
	ctx := context.Background()
	now := testNow
	promptHas := func(want string, reply modeltest.Step) modeltest.Step {
		return func(input []*schema.Message) (*schema.Message, error) {
			assert.Contains(t, input[0].Content, "# Current Date:\n"+want)
			return reply(input)
		}
	}
	m := modeltest.New(
		promptHas("2025-03-14", modeltest.Call(modeltest.ToolCall("c1", tools.AskTextName, `{"question":"Your name"}`))),
		promptHas("2025-03-14", modeltest.Reply("Thanks.")),
		promptHas("2025-03-16", modeltest.Reply("Hello again.")),
	)
	r, err := NewRunner(ctx, &Config{Model: m, Now: func() time.Time { return now }})
	require.NoError(t, err)

	resp, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	now = testNow.Add(24 * time.Hour)
	_, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", "Grace"))
	require.NoError(t, err)
	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 14}, mustState(t, r, "s1").Today)

	now = testNow.Add(48 * time.Hour)
	_, err = r.Chat(ctx, "s1", "back again")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Remaining())
}

func TestForgetAnswer(t *testing.T) {
	ctx := context.Background()
	m := modeltest.New(
		modeltest.Call(modeltest.ToolCall("c1", tools.AskTextName, `{"question":"Your name"}`)),
		modeltest.Call(modeltest.ToolCall("c2", tools.AskNumberName, `{"question":"Your age"}`)),
	)
	r := newTestRunner(t, m, nil, 0)

	resp, err := r.Chat(ctx, "s1", "hi")
	require.NoError(t, err)
	resp, err = r.Resume(ctx, "s1", answer(resp.Interrupt, "value", "Grace"))
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, resp.Status)

	cp, err := r.Forget(ctx, "s1", "Your name")
	require.NoError(t, err)
	assert.Empty(t, cp.Answers)
	require.NotNil(t, cp.Pending)
	assert.Equal(t, resp.Interrupt.ID, cp.Pending.Request.ID)
	assert.Empty(t, mustState(t, r, "s1").Answers)

	_, err = r.Forget(ctx, "s1", "Your name")
	assert.ErrorIs(t, err, ErrUnknownAnswer)
	_, err = r.Forget(ctx, "nope", "Your name")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestPromptSuspension(t *testing.T) {
	assert.Equal(t, field.RequestTypeText, requestFromInfo("Provide the text").Type)
	assert.Equal(t, "Provide the text", requestFromInfo("Provide the text").Prompt)

	f := field.NewDateField("When")
	req := requestFromInfo(f)
	assert.Equal(t, field.RequestTypeField, req.Type)
	assert.True(t, field.Equal(f, req.Field))

	orig := field.RequestNumber("Age")
	assert.Same(t, orig, requestFromInfo(orig))
}
