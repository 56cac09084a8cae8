package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/tbxark/formchat/agent"
	"github.com/tbxark/formchat/field"
)

const (
	errorCodeInvalidRequest   = "invalid_request"
	errorCodeNotFound         = "not_found"
	errorCodeConflict         = "conflict"
	errorCodeValidationFailed = "validation_failed"
	errorCodeTooLarge         = "request_too_large"
	errorCodeRuntimeError     = "runtime_error"
)

var (
	errInvalidRequest = errors.New("invalid request")
	errNotFound       = errors.New("not found")
)

var bodyAPI = sonic.Config{DisallowUnknownFields: true, UseNumber: true}.Froze()

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func invalidRequestError(message string) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, message)
}

func notFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errNotFound, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		slog.Error("encode response", "error", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":{"code":"runtime_error","message":"failed to encode response"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := mapRuntimeError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return invalidRequestError("request body is required")
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body exceeds %d bytes: %w", maxBytesErr.Limit, err)
		}
		return invalidRequestError(fmt.Sprintf("read body: %v", err))
	}
	if len(data) == 0 {
		return invalidRequestError("request body is required")
	}
	if err := bodyAPI.Unmarshal(data, dst); err != nil {
		return invalidRequestError(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func mapRuntimeError(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, errorCodeTooLarge
	case errors.Is(err, errInvalidRequest), errors.Is(err, agent.ErrEmptySessionID):
		return http.StatusBadRequest, errorCodeInvalidRequest
	case errors.Is(err, errNotFound), errors.Is(err, agent.ErrUnknownSession), errors.Is(err, agent.ErrUnknownAnswer):
		return http.StatusNotFound, errorCodeNotFound
	case errors.Is(err, agent.ErrNoSuspensionPending):
		return http.StatusConflict, errorCodeConflict
	case errors.Is(err, field.ErrValidation):
		return http.StatusUnprocessableEntity, errorCodeValidationFailed
	default:
		return http.StatusInternalServerError, errorCodeRuntimeError
	}
}
