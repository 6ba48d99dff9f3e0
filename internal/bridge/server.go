// Package bridge exposes the environment to an out-of-process trainer over
// a websocket.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// Environment is the part of env.Env the bridge drives
type Environment interface {
	Reset(ctx context.Context) (cv.Frame, error)
	Step(ctx context.Context, action input.Action) (env.StepResult, error)
	Render(ctx context.Context, mode string) error
	ActionSpace() int
	ObservationShape() []int
	State() env.State
}

// Config holds the listener settings
type Config struct {
	Addr           string
	MaxMessageSize int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns the default listener settings for addr
func DefaultConfig(addr string) Config {
	return Config{
		Addr:           addr,
		MaxMessageSize: 4 * 1024,
		ReadTimeout:    10 * time.Minute,
		WriteTimeout:   10 * time.Second,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// Local trainer only
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server serves one trainer connection at a time on /env
type Server struct {
	env    Environment
	cfg    Config
	logger *logging.Logger

	connected atomic.Bool
	handled   atomic.Int64
}

// NewServer creates a bridge for e
func NewServer(e Environment, cfg Config) *Server {
	return &Server{
		env:    e,
		cfg:    cfg,
		logger: logging.NewLogger("Bridge"),
	}
}

// Handler routes /env and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/env", s.serveWebSocket)
	mux.HandleFunc("/health", s.healthCheck)
	return mux
}

// httpServer builds the listener whose request contexts derive from ctx, so
// cancelling ctx also interrupts a step in progress
func (s *Server) httpServer(ctx context.Context) *http.Server {
	return &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.httpServer(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithContext("Bridge listening", map[string]interface{}{"addr": s.cfg.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Handled returns the number of requests answered
func (s *Server) Handled() int64 {
	return s.handled.Load()
}

func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.connected.CompareAndSwap(false, true) {
		http.Error(w, "a trainer is already connected", http.StatusConflict)
		return
	}
	defer s.connected.Store(false)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", err)
		return
	}
	defer conn.Close()

	// Shutdown does not close hijacked connections
	ctx := r.Context()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.logger.InfoWithContext("Trainer connected", map[string]interface{}{"remote": r.RemoteAddr})

	if s.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	for {
		if s.cfg.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Trainer read failed", err)
			}
			break
		}

		resp := s.handleMessage(ctx, message)
		data, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("Failed to marshal response", err)
			break
		}
		if s.cfg.WriteTimeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Error("Trainer write failed", err)
			break
		}
		s.handled.Add(1)
	}

	s.logger.Info("Trainer disconnected")
}

func (s *Server) handleMessage(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	resp := Response{Cmd: req.Cmd}
	switch req.Cmd {
	case CmdReset:
		obs, err := s.env.Reset(ctx)
		if err != nil {
			resp.Error = err.Error()
			return resp
		}
		resp.Observation = observation(obs)

	case CmdStep:
		action := input.Action(req.Action)
		if !action.Valid() {
			resp.Error = fmt.Sprintf("action %d outside 0..%d", req.Action, s.env.ActionSpace()-1)
			return resp
		}
		// A cancelled cooldown still carries the observed result
		res, err := s.env.Step(ctx, action)
		if err != nil {
			resp.Error = err.Error()
		}
		if res.Observation.Empty() {
			return resp
		}
		resp.Observation = observation(res.Observation)
		resp.Reward = res.Reward
		resp.Done = res.Done
		resp.Info = res.Info

	case CmdSpec:
		resp.ActionSpace = s.env.ActionSpace()
		resp.ObservationShape = s.env.ObservationShape()

	case CmdRender:
		mode := req.Mode
		if mode == "" {
			mode = env.RenderModeHuman
		}
		if err := s.env.Render(ctx, mode); err != nil {
			resp.Error = err.Error()
		}

	default:
		resp.Error = fmt.Sprintf("unknown command %q", req.Cmd)
	}
	return resp
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":            "ok",
		"connected":         s.connected.Load(),
		"handled":           s.Handled(),
		"state":             s.env.State().String(),
		"action_space":      s.env.ActionSpace(),
		"observation_shape": s.env.ObservationShape(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
