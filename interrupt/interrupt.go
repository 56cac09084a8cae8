// Package interrupt lets a tool pause the agent loop to wait for human input.
//
// A tool calls Suspend with the request it wants answered. On the first
// invocation there is no resume value in the context, so Suspend returns an
// *Error carrying the request; the loop driver persists it and returns
// control to the caller. When the caller answers, the driver re-invokes the
// same tool with WithResume, and Suspend hands back the answer instead.
package interrupt

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrInterrupted = errors.New("interrupted: waiting for human input")

// Error is returned by Suspend when no resume value is available.
type Error struct {
	Info any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%T)", ErrInterrupted.Error(), e.Info)
}

func (e *Error) Is(target error) bool {
	return target == ErrInterrupted
}

// As extracts the interrupt from err, if any.
func As(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

type resumeKey struct{}

type resumeSlot struct {
	mu       sync.Mutex
	info     any
	value    any
	consumed bool
}

// WithResume installs a single-use resume value. Only the first Suspend
// reached under the returned context receives it.
func WithResume(ctx context.Context, value any) context.Context {
	return context.WithValue(ctx, resumeKey{}, &resumeSlot{value: value})
}

// WithResumeFor is WithResume that also remembers the info of the
// suspension being answered, so the resumed tool can reuse it.
func WithResumeFor(ctx context.Context, info, value any) context.Context {
	return context.WithValue(ctx, resumeKey{}, &resumeSlot{info: info, value: value})
}

// ResumedInfo returns the info passed to WithResumeFor, or nil.
func ResumedInfo(ctx context.Context) any {
	slot, ok := ctx.Value(resumeKey{}).(*resumeSlot)
	if !ok {
		return nil
	}
	return slot.info
}

// Suspend returns the resume value when one is pending, otherwise it
// returns an *Error carrying info.
func Suspend(ctx context.Context, info any) (any, error) {
	if slot, ok := ctx.Value(resumeKey{}).(*resumeSlot); ok {
		slot.mu.Lock()
		defer slot.mu.Unlock()
		if !slot.consumed {
			slot.consumed = true
			return slot.value, nil
		}
	}
	return nil, &Error{Info: info}
}
