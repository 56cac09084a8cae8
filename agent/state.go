package agent

import (
	"context"
)

type sessionIDContext struct{}

const DefaultSessionID = "default"

// WithSessionID routes Agent.Run to the given session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDContext{}, id)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDContext{}).(string)
	return id, ok && id != ""
}

func sessionIDOrDefault(ctx context.Context) string {
	if id, ok := SessionIDFromContext(ctx); ok {
		return id
	}
	return DefaultSessionID
}

type resumePayloadContext struct{}

type resumePayload struct {
	value any
}

// WithResumePayload makes Agent.Run resume the pending request of the
// session with payload instead of sending a chat message.
func WithResumePayload(ctx context.Context, payload any) context.Context {
	return context.WithValue(ctx, resumePayloadContext{}, resumePayload{value: payload})
}

func resumePayloadFromContext(ctx context.Context) (any, bool) {
	p, ok := ctx.Value(resumePayloadContext{}).(resumePayload)
	return p.value, ok
}
