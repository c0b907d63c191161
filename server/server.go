// Package server exposes sessions over websockets and results over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"

	"github.com/lguibr/arcade/bollywood"
	"github.com/lguibr/arcade/results"
	"github.com/lguibr/arcade/utils"
)

// Leaderboard is the read side of a results store.
type Leaderboard interface {
	Recent(ctx context.Context, n int64) ([]results.RoundResult, error)
	Top(ctx context.Context, mode string, n int64) ([]results.Entry, error)
}

type Server struct {
	engine     *bollywood.Engine
	managerPID *bollywood.PID
	cfg        utils.Config
	board      Leaderboard // nil disables the results endpoints
	logger     *slog.Logger
}

func New(engine *bollywood.Engine, managerPID *bollywood.PID, cfg utils.Config, board Leaderboard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:     engine,
		managerPID: managerPID,
		cfg:        cfg,
		board:      board,
		logger:     logger.With(slog.String("component", "server")),
	}
}

func (s *Server) GetEngine() *bollywood.Engine   { return s.engine }
func (s *Server) GetManagerPID() *bollywood.PID { return s.managerPID }

// Routes registers every endpoint on a new router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/subscribe", websocket.Handler(s.HandleSubscribe()))
	r.HandleFunc("/sessions", s.HandleGetSessions())
	r.HandleFunc("/results/recent", s.HandleRecentResults()).Methods("GET")
	r.HandleFunc("/results/top", s.HandleLeaderboard()).Methods("GET")
	r.HandleFunc("/health", s.HandleHealthCheck()).Methods("GET")
	return r
}
