package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"shithead-server/internal/config"
	"shithead-server/internal/shithead"
)

type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	state             *State
	connectionManager *ConnectionManager
	rateLimiter       *RateLimiter
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, *http.Server) {
	rules := shithead.Rules{
		MaxPlayers:        cfg.MaxPlayersPerLobby,
		InitialHandSize:   cfg.InitialHandSize,
		TurnDuration:      cfg.TurnDuration,
		SelectionDuration: cfg.SelectionDuration,
	}

	server := &Server{
		cfg:               cfg,
		logger:            logger,
		state:             NewState(rules, logger),
		connectionManager: NewConnectionManager(),
		rateLimiter:       NewRateLimiter(cfg.RateLimitMaxRequests, cfg.RateLimitWindow),
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, httpServer
}

// Shutdown stops every running game timer and closes all live
// connections. The http listener is shut down by the caller.
func (s *Server) Shutdown(ctx context.Context) {
	s.state.StopAll()
	s.connectionManager.CloseAll()
}
