package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"

	"golang.org/x/net/websocket"

	"github.com/lguibr/arcade/game"
	"github.com/lguibr/arcade/utils"
)

const (
	defaultResultsLimit = 10
	maxResultsLimit     = 100
)

// HandleSubscribe creates a session for the connection and pumps client
// input into it until the connection closes.
func (s *Server) HandleSubscribe() func(ws *websocket.Conn) {
	return func(ws *websocket.Conn) {
		client := game.NewWebsocketClient(ws)
		logger := s.logger.With(slog.String("client", client.String()))

		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered in subscribe",
					slog.String("panic", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())))
			}
			_ = ws.Close()
		}()

		engine := s.GetEngine()
		managerPID := s.GetManagerPID()
		if engine == nil || managerPID == nil {
			logger.Error("server engine or session manager is nil")
			return
		}

		req, err := parseCreateRequest(ws.Request())
		if err != nil {
			_ = websocket.JSON.Send(ws, game.NewErrorMessage(err))
			return
		}
		resp, err := game.CreateSession(engine, managerPID, req, s.cfg.Server.AskTimeout)
		if err != nil {
			logger.Warn("create session failed", slog.String("error", err.Error()))
			_ = websocket.JSON.Send(ws, game.NewErrorMessage(err))
			return
		}

		logger = logger.With(slog.String("session", resp.ID))
		logger.Info("client subscribed", slog.String("mode", req.Mode))
		engine.Send(resp.PID, game.AttachClient{Client: client}, nil)
		defer engine.Send(resp.PID, game.DetachClient{Client: client}, nil)

		s.readLoop(ws, resp, logger)
	}
}

func parseCreateRequest(r *http.Request) (game.CreateSessionRequest, error) {
	req := game.CreateSessionRequest{Mode: utils.ModeShooter, Topic: "go"}
	if r == nil {
		return req, nil
	}
	q := r.URL.Query()
	if mode := q.Get("mode"); mode != "" {
		req.Mode = mode
	}
	if topic := q.Get("topic"); topic != "" {
		req.Topic = topic
	}
	if seed := q.Get("seed"); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid seed %q: %w", seed, err)
		}
		req.Seed = v
	}
	return req, nil
}

// readLoop decodes client messages and forwards them to the session.
func (s *Server) readLoop(conn *websocket.Conn, session game.CreateSessionResponse, logger *slog.Logger) {
	engine := s.GetEngine()
	for {
		var msg game.ClientMessage
		err := websocket.JSON.Receive(conn, &msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case game.IsClosedError(err):
				logger.Debug("connection closed")
				return
			case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
				logger.Warn("malformed client message", slog.String("error", err.Error()))
				continue
			default:
				logger.Warn("receive failed", slog.String("error", err.Error()))
				return
			}
		}

		switch msg.Type {
		case game.ClientStart:
			engine.Send(session.PID, game.StartRound{Topic: msg.Topic}, nil)
		case game.ClientExit:
			engine.Send(session.PID, game.ExitRound{}, nil)
		default:
			if ev, ok := msg.Event(); ok {
				engine.Send(session.PID, game.InputMessage{Event: ev}, nil)
			}
		}
	}
}

// HandleGetSessions lists live sessions by asking the session manager.
func (s *Server) HandleGetSessions() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverHTTP(w)
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sessions, err := game.ListSessions(s.GetEngine(), s.GetManagerPID(), s.cfg.Server.AskTimeout)
		if err != nil {
			s.logger.Error("list sessions", slog.String("error", err.Error()))
			http.Error(w, "session manager unavailable", http.StatusServiceUnavailable)
			return
		}
		s.writeJSON(w, game.SessionListResponse{Sessions: sessions})
	}
}

// HandleRecentResults returns the latest recorded rounds, newest first.
func (s *Server) HandleRecentResults() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverHTTP(w)
		if s.board == nil {
			http.Error(w, "results store not configured", http.StatusNotFound)
			return
		}
		n, err := limitParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recent, err := s.board.Recent(r.Context(), n)
		if err != nil {
			s.logger.Error("recent results", slog.String("error", err.Error()))
			http.Error(w, "results store unavailable", http.StatusServiceUnavailable)
			return
		}
		s.writeJSON(w, recent)
	}
}

// HandleLeaderboard returns the best scores for a mode.
func (s *Server) HandleLeaderboard() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		defer s.recoverHTTP(w)
		if s.board == nil {
			http.Error(w, "results store not configured", http.StatusNotFound)
			return
		}
		mode := r.URL.Query().Get("mode")
		if mode == "" {
			mode = utils.ModeShooter
		}
		n, err := limitParam(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		top, err := s.board.Top(r.Context(), mode, n)
		if err != nil {
			s.logger.Error("leaderboard", slog.String("mode", mode), slog.String("error", err.Error()))
			http.Error(w, "results store unavailable", http.StatusServiceUnavailable)
			return
		}
		s.writeJSON(w, top)
	}
}

func (s *Server) HandleHealthCheck() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, map[string]string{"status": "ok"})
	}
}

func limitParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return defaultResultsLimit, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid n %q", raw)
	}
	if n > maxResultsLimit {
		n = maxResultsLimit
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", slog.String("error", err.Error()))
	}
}

func (s *Server) recoverHTTP(w http.ResponseWriter) {
	if rec := recover(); rec != nil {
		s.logger.Error("panic recovered in handler",
			slog.String("panic", fmt.Sprint(rec)),
			slog.String("stack", string(debug.Stack())))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
