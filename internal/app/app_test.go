package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/formchat/internal/config"
	"github.com/tbxark/formchat/internal/modeltest"
)

func newTestApp(t *testing.T, logs *bytes.Buffer) *App {
	t.Helper()
	cfg := config.Default()
	cs, closeStore, err := NewCheckpointStore(context.Background(), cfg.Store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeStore() })
	runner, err := NewRunner(context.Background(), cfg, modeltest.New(modeltest.Reply("hi")), cs)
	require.NoError(t, err)
	a, err := New(cfg, runner, slog.New(slog.NewTextHandler(logs, nil)))
	require.NoError(t, err)
	return a
}

func TestHealthAndReadiness(t *testing.T) {
	var logs bytes.Buffer
	a := newTestApp(t, &logs)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	a.ready.Store(true)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	var logs bytes.Buffer
	a := newTestApp(t, &logs)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/simple/chat/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, logs.String(), "session_id=abc")
	assert.Contains(t, logs.String(), "status=404")
	assert.Contains(t, logs.String(), "level=WARN")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	logs.Reset()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-7")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-7", rec.Header().Get(requestIDHeader))
	assert.Contains(t, logs.String(), "request_id=req-7")
	assert.Contains(t, logs.String(), "level=INFO")
}

func TestSessionIDFromPath(t *testing.T) {
	assert.Equal(t, "abc", sessionIDFromPath("/agent/simple/chat/abc"))
	assert.Equal(t, "", sessionIDFromPath("/agent/simple/chat"))
	assert.Equal(t, "", sessionIDFromPath("/agent/simple/chat/resume/field"))
	assert.Equal(t, "abc", sessionIDFromPath("/agent/simple/chat/abc/answers/Your%20age"))
	assert.Equal(t, "", sessionIDFromPath("/fields/text/schema"))
}

func TestNewCheckpointStoreDrivers(t *testing.T) {
	ctx := context.Background()

	cs, closeStore, err := NewCheckpointStore(ctx, config.StoreConfig{Driver: config.StoreSQLite, Path: t.TempDir() + "/chat.db", Table: "cp"})
	require.NoError(t, err)
	assert.NotNil(t, cs)
	require.NoError(t, closeStore())

	cs, _, err = NewCheckpointStore(ctx, config.StoreConfig{Driver: config.StoreBlob, URL: "mem://localhost/app-test"})
	require.NoError(t, err)
	assert.NotNil(t, cs)

	_, _, err = NewCheckpointStore(ctx, config.StoreConfig{Driver: "redis"})
	assert.Error(t, err)
}

func TestNewChatModelRequiresKey(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.Default())
	assert.Error(t, err)
}
