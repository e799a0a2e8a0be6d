// Package web provides an HTTP status server for the solar-tracker daemon.
package web

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"

	"github.com/sweeney/solar-tracker/internal/status"
)

// Dumper replays the event log as CSV.
type Dumper interface {
	Dump(w io.Writer) error
}

// Server serves status, metrics and the event log over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	log        Dumper
}

// New creates a Server that reads state from the given tracker. A nil
// metrics handler leaves /metrics unrouted.
func New(addr string, tracker *status.Tracker, datalog Dumper, metrics http.Handler) *Server {
	s := &Server{tracker: tracker, log: datalog}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleJSON)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/datalog.csv", s.handleDatalog)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.json" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleDatalog(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="datalog.csv"`)
	if err := s.log.Dump(w); err != nil {
		// Headers are gone once the body has started; log only.
		log.Printf("http: datalog dump error: %v", err)
	}
}
