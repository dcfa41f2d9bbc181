package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"task-manager-web/config"
	"task-manager-web/handlers"
	"task-manager-web/utilities"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the page and API routes around h.
func NewRouter(h *handlers.Handlers, cfg config.Config) http.Handler {
	r := mux.NewRouter()
	h.Register(r)

	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "X-Request-ID"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	origins := gorillahandlers.AllowedOrigins(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		utilities.LogInfo("CORS_ALLOWED_ORIGINS not set, allowing all origins ('*')")
	} else {
		utilities.LogInfo("CORS allowed origins: %v", cfg.AllowedOrigins)
	}

	// Wrapped outside the router so unmatched routes (404, 405) are tagged
	// and logged too.
	var handler http.Handler = r
	handler = handlers.LoggingMiddleware(handler)
	handler = handlers.RequestIDMiddleware(handler)
	handler = gorillahandlers.CompressHandler(handler)
	handler = gorillahandlers.CORS(headers, methods, origins)(handler)
	handler = gorillahandlers.RecoveryHandler(gorillahandlers.RecoveryLogger(utilities.Logger()))(handler)
	return handler
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utilities.LogInfo("server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	utilities.LogInfo("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
