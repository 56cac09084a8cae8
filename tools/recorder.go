package tools

import (
	"context"

	"github.com/tbxark/formchat/field"
)

// RecordFunc receives every answer a tool parsed successfully.
type RecordFunc func(ctx context.Context, answer *field.Answer) error

type recorderKey struct{}

func WithRecorder(ctx context.Context, fn RecordFunc) context.Context {
	return context.WithValue(ctx, recorderKey{}, fn)
}

func record(ctx context.Context, answer *field.Answer) error {
	fn, ok := ctx.Value(recorderKey{}).(RecordFunc)
	if !ok || fn == nil {
		return nil
	}
	return fn(ctx, answer)
}
