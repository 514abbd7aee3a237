// Package httpapi serves the record service over HTTP. Handlers decode the
// request, call service.Service and map its errors to status codes; they
// hold no storage logic.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpl-au/docstore/internal/service"
)

// Server routes HTTP requests to a Service.
type Server struct {
	svc    service.Service
	logger *slog.Logger
	mux    *http.ServeMux
}

// New returns a Server over svc. A nil logger discards request logs.
func New(svc service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{svc: svc, logger: logger, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Literal routes are more specific than /{id...}, so records whose id is
// "search", "publish", "process" or starts with "actions/" are not
// reachable through GET.
func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.list)
	s.mux.HandleFunc("GET /search", s.search)
	s.mux.HandleFunc("POST /publish", s.publish)
	s.mux.HandleFunc("GET /actions", s.actions)
	s.mux.HandleFunc("GET /actions/{id}", s.action)
	s.mux.HandleFunc("POST /process", s.process)
	s.mux.HandleFunc("GET /{id...}", s.get)
	s.mux.HandleFunc("PUT /{id...}", s.put)
	s.mux.HandleFunc("DELETE /{id...}", s.delete)
}

// ServeHTTP implements http.Handler and logs each request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
