// Package app wires configuration into a runner and serves it over HTTP.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/tbxark/formchat/internal/config"
	"github.com/tbxark/formchat/internal/httpapi"
)

// App owns the HTTP server lifecycle.
type App struct {
	server            *http.Server
	cancelServerScope context.CancelFunc
	ready             atomic.Bool
}

func New(cfg config.Config, runtime httpapi.Runtime, logger *slog.Logger) (*App, error) {
	if cfg.HTTP.Addr == "" {
		return nil, errors.New("new app: empty http.addr")
	}
	if runtime == nil {
		return nil, errors.New("new app: nil runtime")
	}
	if logger == nil {
		return nil, errors.New("new app: nil logger")
	}

	serverScopeCtx, cancelServerScope := context.WithCancel(context.Background())
	a := &App{cancelServerScope: cancelServerScope}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	mux.Handle("/", httpapi.NewRouter(runtime))
	a.server = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: requestLoggingMiddleware(logger)(mux),
		BaseContext: func(_ net.Listener) context.Context {
			return serverScopeCtx
		},
	}
	return a, nil
}

// Handler exposes the full handler chain.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Start() error {
	a.ready.Store(true)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	a.ready.Store(false)
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return errors.New("shutdown: nil context")
	}
	a.ready.Store(false)
	a.cancelServerScope()
	return a.server.Shutdown(ctx)
}

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writePlain(w, http.StatusOK, "ok")
}

func (a *App) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if !a.ready.Load() {
		writePlain(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writePlain(w, http.StatusOK, "ready")
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
