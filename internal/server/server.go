// Package server exposes the verification pipeline over HTTP: multipart
// upload, outcome lookup, Prometheus metrics and a websocket event
// stream for the admin dashboard.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collegemail/idverify/internal/config"
	"github.com/collegemail/idverify/internal/emailgen"
	"github.com/collegemail/idverify/internal/pipeline"
)

// Server serves the verification HTTP API.
type Server struct {
	cfg      config.ServerConfig
	pipeline *pipeline.Pipeline
	queue    *pipeline.Queue
	emails   *emailgen.Generator
	hub      *eventHub
	httpSrv  *http.Server

	// Issuance bookkeeping. The account system of record lives elsewhere;
	// the server only guards against double-issuing within its lifetime.
	issuedMu    sync.Mutex
	issuedAddrs map[string]bool
	issuedByReq map[string]string
}

// New creates a Server around a built pipeline, its queue and the address
// generator.
func New(cfg config.ServerConfig, emails *emailgen.Generator, p *pipeline.Pipeline, q *pipeline.Queue) *Server {
	s := &Server{
		cfg:         cfg,
		pipeline:    p,
		queue:       q,
		emails:      emails,
		hub:         newEventHub(),
		issuedAddrs: make(map[string]bool),
		issuedByReq: make(map[string]string),
	}
	q.SetObserver(s.onEvent)
	return s
}

// Routes builds the HTTP mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.instrument("/health", s.healthHandler))
	mux.HandleFunc("/verify", s.instrument("/verify", s.verifyHandler))
	mux.HandleFunc("/outcome/", s.instrument("/outcome", s.outcomeHandler))
	mux.HandleFunc("/email", s.instrument("/email", s.emailHandler))
	mux.HandleFunc("/ws", s.eventsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// issueAddress synthesizes (or returns the already-issued) institutional
// address for an approved request. Issuance is idempotent per request id.
func (s *Server) issueAddress(requestID, declaredName, roll string) (string, bool, error) {
	s.issuedMu.Lock()
	defer s.issuedMu.Unlock()

	if addr, ok := s.issuedByReq[requestID]; ok {
		return addr, false, nil
	}
	addr, err := s.emails.Generate(declaredName, roll, func(a string) bool {
		return s.issuedAddrs[a]
	})
	if err != nil {
		return "", false, err
	}
	s.issuedAddrs[addr] = true
	s.issuedByReq[requestID] = addr
	return addr, true, nil
}

// ListenAndServe starts the server and blocks until the context is
// cancelled, then drains with the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(s.cfg.ShutdownTimeout)*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// instrument wraps a handler with request counting.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	}
}

// onEvent fans queue events out to websocket subscribers and metrics.
func (s *Server) onEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventAccepted:
		verifyRequestsTotal.WithLabelValues("accepted").Inc()
	case pipeline.EventCompleted:
		verifyRequestsTotal.WithLabelValues("completed").Inc()
		verifyOutcomes.WithLabelValues(ev.Category).Inc()
	case pipeline.EventFailed:
		verifyRequestsTotal.WithLabelValues("failed").Inc()
	}
	s.hub.broadcast(ev)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
