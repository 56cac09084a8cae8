package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formchat/field"
	"github.com/tbxark/formchat/interrupt"
)

// suspendThenResume runs a tool once to capture its request, then replays it
// with a payload built from that request.
func suspendThenResume(t *testing.T, ctx context.Context, name, args string, answer func(req *field.Request) map[string]any) (string, *field.Request) {
	t.Helper()
	ts, err := New()
	require.NoError(t, err)
	for _, tl := range ts {
		info, err := tl.Info(ctx)
		require.NoError(t, err)
		if info.Name != name {
			continue
		}
		_, err = tl.InvokableRun(ctx, args)
		ie, ok := interrupt.As(err)
		require.True(t, ok, "expected interrupt, got %v", err)
		req, ok := ie.Info.(*field.Request)
		require.True(t, ok)
		require.NoError(t, req.Validate())

		out, err := tl.InvokableRun(interrupt.WithResumeFor(ctx, req, answer(req)), args)
		require.NoError(t, err)
		return out, req
	}
	t.Fatalf("tool %s not found", name)
	return "", nil
}

func payloadFor(req *field.Request, key string, value any) map[string]any {
	return map[string]any{
		"id":   req.Field.FieldID(),
		"type": string(req.Field.FieldType()),
		key:    value,
	}
}

func TestNewReturnsFiveTools(t *testing.T) {
	ts, err := New()
	require.NoError(t, err)
	infos, err := Infos(context.Background(), ts)
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.Desc)
	}
	assert.Equal(t, []string{AskTextName, AskNumberName, AskDateName, AskCheckboxName, AskRadioName}, names)
}

func TestAskToolsRoundTrip(t *testing.T) {
	ctx := context.Background()

	out, req := suspendThenResume(t, ctx, AskNumberName, `{"question":"Your age"}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "value", "12.50")
	})
	assert.Equal(t, "Number: 12.50", out)
	assert.Equal(t, "Your age", req.Field.FieldDescription())

	out, _ = suspendThenResume(t, ctx, AskTextName, `{"question":"Your name","placeholder":"Jane"}`, func(req *field.Request) map[string]any {
		assert.Equal(t, "Jane", req.Field.(*field.TextField).Placeholder)
		return payloadFor(req, "value", "Ada")
	})
	assert.Equal(t, "Text: Ada", out)

	out, _ = suspendThenResume(t, ctx, AskDateName, `{"question":"Birthday"}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "value", "1990-05-17")
	})
	assert.Equal(t, "Date: 1990-05-17", out)

	out, _ = suspendThenResume(t, ctx, AskCheckboxName, `{"question":"Order","options":["Burger","Fries","Cake"]}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "values", []any{"Burger", "Fries"})
	})
	assert.Equal(t, "Selected: Burger, Fries", out)

	out, _ = suspendThenResume(t, ctx, AskCheckboxName, `{"question":"Order","options":["Burger","Fries","Cake"]}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "values", []any{})
	})
	assert.Equal(t, "Selected: none", out)

	out, _ = suspendThenResume(t, ctx, AskRadioName, `{"question":"Payment method","options":["Credit card","Bank account","Cash"]}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "value", "Cash")
	})
	assert.Equal(t, "Selected: Cash", out)
}

func TestAskToolReusesResumedRequest(t *testing.T) {
	ctx := context.Background()
	var got *field.Answer
	ctx = WithRecorder(ctx, func(_ context.Context, a *field.Answer) error {
		got = a
		return nil
	})
	_, req := suspendThenResume(t, ctx, AskRadioName, `{"question":"Payment method","options":["Cash"]}`, func(req *field.Request) map[string]any {
		return payloadFor(req, "value", "Bitcoin")
	})
	require.NotNil(t, got)
	assert.Equal(t, req.Field.FieldID(), got.FieldID)
	assert.Equal(t, "Payment method", got.Description)
	assert.Equal(t, "Bitcoin", got.Value)
}

func TestAskToolErrors(t *testing.T) {
	ctx := context.Background()
	radio, err := NewAskRadio()
	require.NoError(t, err)

	_, err = radio.InvokableRun(ctx, `{"question":"Payment","options":[]}`)
	assert.ErrorIs(t, err, field.ErrConstruction)
	_, ok := interrupt.As(err)
	assert.False(t, ok)

	_, err = radio.InvokableRun(ctx, `{not json`)
	assert.Error(t, err)

	number, err := NewAskNumber()
	require.NoError(t, err)
	_, err = number.InvokableRun(interrupt.WithResume(ctx, map[string]any{"id": "x", "type": "number", "value": "lots"}), `{"question":"Age"}`)
	assert.ErrorIs(t, err, field.ErrValidation)
}

func TestFormatAnswer(t *testing.T) {
	assert.Equal(t, "Text: ", FormatAnswer(&field.Answer{Type: field.TypeText, Value: ""}))
	assert.Equal(t, "Selected: none", FormatAnswer(&field.Answer{Type: field.TypeCheckbox, Value: []string{}}))
}
