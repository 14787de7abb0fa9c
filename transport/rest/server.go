package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameService interface {
	Snapshot(ctx context.Context) (*entity.Snapshot, error)

	PlayerMove(ctx context.Context, squareID int) (*entity.Snapshot, error)
	NewRound(ctx context.Context) (*entity.Snapshot, error)
	Reset(ctx context.Context) (*entity.Snapshot, error)
}

type Server struct {
	logger      *slog.Logger
	gameService gameService

	router chi.Router
}

func New(logger *slog.Logger, gameService gameService) *Server {
	server := &Server{
		logger:      logger.With("component", "rest"),
		gameService: gameService,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/ping", server.handlePing)

	router.Route("/api/game", func(r chi.Router) {
		r.Get("/", server.handleGetGame)
		r.Post("/moves", server.handlePlayerMove)
		r.Post("/reset", server.handleReset)
		r.Post("/new-round", server.handleNewRound)
	})

	server.router = router

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start - starts HTTP server, it stops when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
