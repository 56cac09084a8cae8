package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/field"
)

type chatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type resumeRequest struct {
	SessionID string          `json:"session_id"`
	Field     json.RawMessage `json:"field"`
}

func (h *handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, invalidRequestError("query is required"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	resp, err := h.runtime.Chat(r.Context(), req.SessionID, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeTurn(w, r, resp)
}

func (h *handler) handleResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.SessionID == "" {
		writeError(w, invalidRequestError("session_id is required"))
		return
	}
	if len(req.Field) == 0 {
		writeError(w, invalidRequestError("field is required"))
		return
	}
	payload, err := field.DecodePayload(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.runtime.Resume(r.Context(), req.SessionID, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeTurn(w, r, resp)
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	cp, err := h.runtime.State(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(cp))
}

func (h *handler) handleForget(w http.ResponseWriter, r *http.Request) {
	cp, err := h.runtime.Forget(r.Context(), r.PathValue("session_id"), r.PathValue("question"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(cp))
}

func (h *handler) handleFieldSchema(w http.ResponseWriter, r *http.Request) {
	t := field.Type(r.PathValue("type"))
	if !t.Valid() {
		writeError(w, notFoundError("unknown field type %q", t))
		return
	}
	s, err := field.InputSchema(t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// writeTurn reports the turn outcome together with the session history.
func (h *handler) writeTurn(w http.ResponseWriter, r *http.Request, resp *agent.Response) {
	view := turnView{
		SessionID: resp.SessionID,
		Status:    resp.Status,
		Message:   resp.Message,
	}
	if resp.Interrupt != nil {
		view.Interrupts = []interruptView{{ID: resp.Interrupt.ID, Value: resp.Interrupt}}
	}
	if cp, err := h.runtime.State(r.Context(), resp.SessionID); err == nil {
		view.Messages = messageViews(cp.Messages)
		view.Answers = cp.Answers
	}
	writeJSON(w, http.StatusOK, view)
}
