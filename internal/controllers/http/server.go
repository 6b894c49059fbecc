package httpctrl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/Agrid-Dev/thermograph/internal/ports"
	"github.com/Agrid-Dev/thermograph/internal/simulation"
	"github.com/Agrid-Dev/thermograph/internal/thermal"
)

const writeWait = 5 * time.Second

type Server struct {
	svc      ports.SimulationService
	srv      *http.Server
	runID    string
	upgrader websocket.Upgrader
	log      *log.Entry

	// hijacked stream connections; Shutdown does not see them
	streamsMu sync.Mutex
	streams   map[*websocket.Conn]struct{}
}

// New returns a runnable server.
func New(svc ports.SimulationService, addr string, runID string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		svc:   svc,
		runID: runID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     log.WithFields(log.Fields{"component": "http", "run_id": runID}),
		streams: make(map[*websocket.Conn]struct{}),
	}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)
	mux.HandleFunc("GET /v1/nodes/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	// Write
	mux.HandleFunc("POST /v1/running", s.handlePostRunning)
	mux.HandleFunc("POST /v1/boundaries/{id}/temperature", s.handlePostBoundary)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.srv.RegisterOnShutdown(s.closeStreams)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.WithField("addr", s.srv.Addr).Info("http controller listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- DTOs ----

type readingDTO struct {
	ID          string  `json:"id"`
	Kelvin      float64 `json:"kelvin"`
	Temperature float64 `json:"temperature"`
	Units       string  `json:"units"`
}

type snapshotDTO struct {
	RunID      string       `json:"run_id"`
	Name       string       `json:"name"`
	Running    bool         `json:"running"`
	State      string       `json:"state"`
	Steps      int          `json:"steps"`
	TotalSteps int          `json:"total_steps"`
	Elapsed    float64      `json:"elapsed_s"`
	Nodes      []readingDTO `json:"nodes"`
	Boundaries []readingDTO `json:"boundaries"`
}

type sampleDTO struct {
	Time        float64 `json:"time_s"`
	Temperature float64 `json:"temperature"`
}

type historyDTO struct {
	ID      string      `json:"id"`
	Units   string      `json:"units"`
	Samples []sampleDTO `json:"samples"`
}

func toReadings(rs []simulation.Reading) []readingDTO {
	out := make([]readingDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, readingDTO{
			ID:          r.ID,
			Kelvin:      r.Kelvin,
			Temperature: r.Display(),
			Units:       r.Units.String(),
		})
	}
	return out
}

func toDTO(s simulation.Snapshot) snapshotDTO {
	return snapshotDTO{
		RunID:      s.RunID,
		Name:       s.Name,
		Running:    s.Running,
		State:      s.State.String(),
		Steps:      s.Steps,
		TotalSteps: s.TotalSteps,
		Elapsed:    s.Elapsed,
		Nodes:      toReadings(s.Nodes),
		Boundaries: toReadings(s.Boundaries),
	}
}

func toHistoryDTO(s thermal.Series) historyDTO {
	out := historyDTO{ID: s.ID, Units: s.Units.String(), Samples: make([]sampleDTO, 0, len(s.Samples))}
	for _, p := range s.Samples {
		out.Samples = append(out.Samples, sampleDTO{Time: p.Time, Temperature: p.Temperature})
	}
	return out
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.History(r.PathValue("id"))
	if err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTO(h))
}

func (s *Server) handlePostRunning(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, func(v bool) error {
		s.svc.SetRunning(v)
		return nil
	})
}

func (s *Server) handlePostBoundary(w http.ResponseWriter, r *http.Request) {
	// body: {"value": 5800}
	id := r.PathValue("id")
	postValue(s, w, r, func(v float64) error {
		return s.svc.SetBoundaryTemperature(id, v)
	})
}

// handleStream pushes the current snapshot, then one per step, until the
// client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.track(conn)
	defer s.untrack(conn)

	updates, unsubscribe := s.svc.Subscribe()
	defer unsubscribe()

	// The reader only exists to notice close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := s.push(conn, s.svc.Get()); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			if err := s.push(conn, snap); err != nil {
				s.log.WithError(err).Debug("websocket client dropped")
				return
			}
		}
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.streamsMu.Lock()
	s.streams[conn] = struct{}{}
	s.streamsMu.Unlock()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.streamsMu.Lock()
	delete(s.streams, conn)
	s.streamsMu.Unlock()
	_ = conn.Close()
}

// closeStreams sends a going-away frame to every open stream and closes it,
// which ends the matching handlers.
func (s *Server) closeStreams() {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	for conn := range s.streams {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
	}
}

func (s *Server) openStreams() int {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	return len(s.streams)
}

func (s *Server) push(conn *websocket.Conn, snap simulation.Snapshot) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(toDTO(snap))
}

// ---- generic helpers ----
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	dto := toDTO(s.svc.Get())
	if dto.RunID == "" {
		dto.RunID = s.runID
	}
	writeJSON(w, http.StatusOK, dto)
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		writeErr(w, statusFor(err), err.Error())
		return
	}

	s.respondSnapshot(w)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrUnknownBoundary), errors.Is(err, simulation.ErrUnknownComponent):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
