package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/store"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/tictactoe"
)

type GameService interface {
	Snapshot(ctx context.Context) (*entity.Snapshot, error)

	PlayerMove(ctx context.Context, squareID int) (*entity.Snapshot, error)
	NewRound(ctx context.Context) (*entity.Snapshot, error)
	Reset(ctx context.Context) (*entity.Snapshot, error)

	Subscribe(listener store.Listener) func()
}

type stateStore interface {
	Load(ctx context.Context) (*entity.State, error)
	Update(ctx context.Context, fn func(prev *entity.State) (*entity.State, error)) (*entity.State, error)
	Subscribe(listener store.Listener) func()
}

type gameService struct {
	logger  *slog.Logger
	players entity.Players
	store   stateStore

	// actions are applied one at a time
	mu sync.Mutex
}

func NewGameService(logger *slog.Logger, players entity.Players, store stateStore) GameService {
	return &gameService{
		logger:  logger.With("component", "gameService"),
		players: players,
		store:   store,
	}
}

func (that *gameService) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	state, err := that.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	return tictactoe.Snapshot(state, that.players), nil
}

// PlayerMove - an occupied square is ignored: nothing is saved and no listener fires.
func (that *gameService) PlayerMove(ctx context.Context, squareID int) (*entity.Snapshot, error) {
	log := that.logger.With("method", "PlayerMove", "squareID", squareID)

	that.mu.Lock()
	defer that.mu.Unlock()

	state, err := that.store.Update(ctx, func(prev *entity.State) (*entity.State, error) {
		if tictactoe.HasMove(prev, squareID) {
			return prev, apperror.ErrSquareOccupied
		}

		return tictactoe.PlayerMove(prev, that.players, squareID)
	})

	switch {
	case errors.Is(err, apperror.ErrSquareOccupied), errors.Is(err, apperror.ErrRoundComplete):
		log.Debug("move ignored", "reason", err)
		return tictactoe.Snapshot(state, that.players), err
	case err != nil:
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	snapshot := tictactoe.Snapshot(state, that.players)
	if snapshot.Game.Status.IsComplete {
		log.Info("round complete", "winner", winnerName(snapshot.Game.Status))
	}

	return snapshot, nil
}

func (that *gameService) NewRound(ctx context.Context) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	state, err := that.store.Update(ctx, func(prev *entity.State) (*entity.State, error) {
		return tictactoe.NewRound(prev, that.players), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start new round: %w", err)
	}

	that.logger.Info("new round started", "roundsInMatch", len(state.History.CurrentRoundGames))

	return tictactoe.Snapshot(state, that.players), nil
}

func (that *gameService) Reset(ctx context.Context) (*entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	state, err := that.store.Update(ctx, func(prev *entity.State) (*entity.State, error) {
		return tictactoe.Reset(prev, that.players), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset match: %w", err)
	}

	that.logger.Info("match reset", "roundsPlayed", len(state.History.AllGames))

	return tictactoe.Snapshot(state, that.players), nil
}

func (that *gameService) Subscribe(listener store.Listener) func() {
	return that.store.Subscribe(listener)
}

func winnerName(status entity.RoundStatus) string {
	if status.Winner == nil {
		return "tie"
	}

	return status.Winner.Name
}
