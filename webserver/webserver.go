// Package webserver wires the route table and runs the HTTP server
// with graceful shutdown.
package webserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"pc-inventory/auth"
	"pc-inventory/endpoints"
	"pc-inventory/middleware"
)

type Options struct {
	Addr           string
	MaxUploadBytes int64
	API            *endpoints.API
	Sessions       *auth.Manager
	Log            zerolog.Logger
}

// New builds the server. Ingestion stays unauthenticated (the fleet
// robots have no operator credentials) but is rate limited per client;
// the query surface sits behind the session gate.
func New(opts Options) *http.Server {
	ingestLimiter := middleware.NewRateLimiter(5, 10)
	authLimiter := middleware.NewRateLimiter(1, 5)

	requireSession := middleware.RequireSession(opts.Sessions, opts.Log)

	mux := http.NewServeMux()
	mux.Handle("POST /api/computers/create",
		middleware.Chain(http.HandlerFunc(opts.API.CreateComputer), ingestLimiter.Limit(opts.Log)))
	mux.Handle("GET /api/computers",
		middleware.Chain(http.HandlerFunc(opts.API.ListComputers), requireSession))
	mux.Handle("GET /api/computers/{id}",
		middleware.Chain(http.HandlerFunc(opts.API.GetComputer), requireSession))
	mux.Handle("POST /api/login",
		middleware.Chain(http.HandlerFunc(opts.API.Login), authLimiter.Limit(opts.Log)))
	mux.Handle("POST /api/logout", http.HandlerFunc(opts.API.Logout))
	mux.Handle("GET /api/healthz", http.HandlerFunc(opts.API.Healthz))

	handler := middleware.Chain(mux,
		middleware.PanicRecovery(opts.Log),
		middleware.RequestLogger(opts.Log),
		middleware.LimitBody(opts.MaxUploadBytes),
	)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown timed out, closing")
		return srv.Close()
	}
	return nil
}
