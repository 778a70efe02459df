// Package target is a stand-in for the system under test. It serves the
// admin paths endpoint with configurable latency and status so runs can be
// tried locally.
package target

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthPath = "/health"

// DefaultPaths is the body served by the admin paths endpoint
var DefaultPaths = []string{"/admin/", "/admin/users/", "/admin/settings/"}

// Options configures the target server
type Options struct {
	Addr    string
	Path    string
	Latency time.Duration
	Jitter  time.Duration
	Status  int
}

// Server serves the admin paths endpoint and a health check
type Server struct {
	opts   Options
	logger *zap.Logger
	body   []byte
	hits   atomic.Int64
	server *http.Server
}

// New creates a target server. Path defaults to /api/admin_paths/ and
// Status to 200.
func New(opts Options, logger *zap.Logger) (*Server, error) {
	if opts.Path == "" {
		opts.Path = "/api/admin_paths/"
	}
	if err := validatePath(opts.Path); err != nil {
		return nil, err
	}
	if opts.Status == 0 {
		opts.Status = http.StatusOK
	}
	if opts.Status < 100 || opts.Status > 599 {
		return nil, fmt.Errorf("invalid status %d", opts.Status)
	}
	if opts.Latency < 0 || opts.Jitter < 0 {
		return nil, fmt.Errorf("latency and jitter must not be negative")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	body, err := json.Marshal(DefaultPaths)
	if err != nil {
		return nil, err
	}

	s := &Server{opts: opts, logger: logger, body: body}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      opts.Latency + opts.Jitter + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s, nil
}

// validatePath rejects paths that would clash with the health route or be
// read as a ServeMux pattern.
func validatePath(path string) error {
	switch {
	case !strings.HasPrefix(path, "/"):
		return fmt.Errorf("path %q must start with '/'", path)
	case path == healthPath:
		return fmt.Errorf("path %q is reserved for the health check", path)
	case strings.ContainsAny(path, "{} \t"):
		return fmt.Errorf("path %q must not contain wildcards or spaces", path)
	}
	return nil
}

// Handler returns the routes without starting a listener
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+s.opts.Path, s.adminPaths)
	mux.HandleFunc("GET "+healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "healthy")
	})
	return mux
}

// Hits returns how many admin paths requests have been served
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

func (s *Server) adminPaths(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	delay := s.opts.Latency
	if s.opts.Jitter > 0 {
		delay += rand.N(s.opts.Jitter + 1)
	}

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.opts.Status)
	w.Write(s.body)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("target listening", zap.String("addr", s.opts.Addr), zap.String("path", s.opts.Path))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("target server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("target stopping", zap.Int64("hits", s.Hits()))
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
