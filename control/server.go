// Package control implements the HTTP+WebSocket Control Service named in
// SPEC_FULL.md §4.10: thin routing over a driver.Driver, grounded in the
// pack's tabular project (niceyeti-tabular/server/server.go), which serves
// its own device-control web surface the same way — a single upgraded
// WebSocket per subscriber pushing JSON state events, plus plain POST
// handlers for commands. Routing uses github.com/gorilla/mux rather than
// tabular's bare http.HandleFunc, since this service needs path-bearing
// job-upload and command routes the mux matcher expresses more directly.
package control

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.inkdrive.dev/plotterd/driver"
	"go.inkdrive.dev/plotterd/logging"
	"go.inkdrive.dev/plotterd/planner"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server wires a driver.Driver to the routes named in SPEC_FULL.md §4.10.
type Server struct {
	drv    *driver.Driver
	logger logging.Logger
	router *mux.Router

	mu      sync.Mutex
	pending planner.Job
}

// New constructs a Server over an already-running Driver (the caller owns
// starting drv.Run in its own goroutine, same as the CLI's plot command).
func New(drv *driver.Driver, logger logging.Logger) *Server {
	s := &Server{drv: drv, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	s.router.HandleFunc("/jobs", s.handleLoadJob).Methods(http.MethodPost)
	s.router.HandleFunc("/start", s.handleStart).Methods(http.MethodPost)
	s.router.HandleFunc("/cancel", s.handleCommand(s.drv.Cancel)).Methods(http.MethodPost)
	s.router.HandleFunc("/pause", s.handleCommand(s.drv.Pause)).Methods(http.MethodPost)
	s.router.HandleFunc("/resume", s.handleCommand(s.drv.Resume)).Methods(http.MethodPost)
	s.router.HandleFunc("/manual/pen-up", s.handleCommand(func() error { return s.drv.ManualPenUp(500 * time.Millisecond) })).Methods(http.MethodPost)
	s.router.HandleFunc("/manual/pen-down", s.handleCommand(func() error { return s.drv.ManualPenDown(500 * time.Millisecond) })).Methods(http.MethodPost)
	return s
}

// ListenAndServe blocks serving addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return httpSrv.Close()
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "control service")
		}
		return nil
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!doctype html><title>plotterd</title><body>plotterd control service is running. Connect to /ws for status.</body>"))
}

// handleLoadJob decodes a Job file (SPEC_FULL.md §6) and holds it as the
// pending job; it does not start plotting. SPEC_FULL.md §4.8 treats Job
// data as immutable once loaded, so this server never mutates a stored
// job, only replaces it wholesale on the next /jobs POST.
func (s *Server) handleLoadJob(w http.ResponseWriter, r *http.Request) {
	var job planner.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		http.Error(w, errors.Wrap(err, "job file malformed").Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.pending = job
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

// handleStart starts the Driver on whichever Job was last loaded via
// POST /jobs.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	job := s.pending
	s.mu.Unlock()
	if len(job.Actions) == 0 {
		http.Error(w, "no job loaded: POST /jobs first", http.StatusBadRequest)
		return
	}
	if err := s.drv.Start(job); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCommand(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

// serveWebsocket streams StateChanged/Completed/Error events to its own
// subscriber connection as JSON frames, the same publish-loop shape as
// tabular's server.publishUpdates but sourced from a
// driver.Driver.Subscribe registration instead of a reinforcement-
// learning update channel, so that each concurrent /ws connection gets
// its own copy of the event stream (SPEC_FULL.md §5 "Subscriber set")
// rather than the connections splitting one shared channel; an event is
// dropped only for a connection whose subscriber buffer is full. The
// read and write pumps run concurrently under an errgroup: a client
// disconnect (surfaced through a failed ReadMessage) cancels the write
// pump, and a failed write cancels the read pump, the same
// either-side-stops-both convention a duplex websocket relay needs.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	events, unsubscribe := s.drv.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		// The client never sends application frames, only control frames
		// (ping/close); ReadMessage's only job here is to surface those
		// and detect disconnect.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return err
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case evt, ok := <-events:
				if !ok {
					return nil
				}
				frame, err := encodeEvent(evt)
				if err != nil {
					s.logger.Warnf("encoding event: %v", err)
					continue
				}
				if err := ws.WriteJSON(frame); err != nil {
					return err
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		s.logger.Debugf("websocket subscriber disconnected: %v", err)
	}
}

// eventFrame is the JSON wire shape for a driver.Event pushed over /ws.
type eventFrame struct {
	Type  string      `json:"type"`
	State interface{} `json:"state,omitempty"`
	Error string      `json:"error,omitempty"`
}

func encodeEvent(evt driver.Event) (eventFrame, error) {
	switch e := evt.(type) {
	case driver.StateChanged:
		return eventFrame{Type: "state_changed", State: e.State}, nil
	case driver.Completed:
		return eventFrame{Type: "completed", State: e}, nil
	case driver.ErrorEvent:
		return eventFrame{Type: "error", Error: e.Err.Error()}, nil
	default:
		return eventFrame{}, errors.Errorf("unknown event type %T", evt)
	}
}
