// Package httpapi serves the chat and resume endpoints over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/tbxark/formchat/agent"
)

const maxBodyBytes = 1 << 20

// Runtime is the part of agent.Runner the handlers use.
type Runtime interface {
	Chat(ctx context.Context, sessionID, text string) (*agent.Response, error)
	Resume(ctx context.Context, sessionID string, payload any) (*agent.Response, error)
	State(ctx context.Context, sessionID string) (*agent.Checkpoint, error)
	Forget(ctx context.Context, sessionID, question string) (*agent.Checkpoint, error)
}

var _ Runtime = (*agent.Runner)(nil)

type handler struct {
	runtime Runtime
}

// NewRouter registers the chat, resume, state, answer and field schema routes.
func NewRouter(runtime Runtime) http.Handler {
	h := &handler{runtime: runtime}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /agent/simple/chat", h.handleChat)
	mux.HandleFunc("POST /agent/simple/chat/resume/field", h.handleResume)
	mux.HandleFunc("GET /agent/simple/chat/{session_id}", h.handleState)
	mux.HandleFunc("DELETE /agent/simple/chat/{session_id}/answers/{question}", h.handleForget)
	mux.HandleFunc("GET /fields/{type}/schema", h.handleFieldSchema)
	return mux
}
