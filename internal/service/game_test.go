package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errRedisDown = errors.New("redis down")

	players = entity.DefaultPlayers()

	tieSquares = []int{1, 2, 3, 5, 4, 6, 8, 7, 9}
)

// fakeStore - keeps the state in memory and counts saves.
type fakeStore struct {
	state     *entity.State
	saves     int
	err       error
	listeners []store.Listener
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: entity.NewState()}
}

func (f *fakeStore) Load(context.Context) (*entity.State, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.state.Clone(), nil
}

func (f *fakeStore) Update(ctx context.Context, fn func(prev *entity.State) (*entity.State, error)) (*entity.State, error) {
	prev, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := fn(prev.Clone())
	if err != nil {
		return prev, err
	}

	f.state = next.Clone()
	f.saves++

	for _, listener := range f.listeners {
		listener()
	}

	return next, nil
}

func (f *fakeStore) Subscribe(listener store.Listener) func() {
	f.listeners = append(f.listeners, listener)
	return func() {}
}

func newService(st *fakeStore) GameService {
	return NewGameService(slog.New(slog.NewJSONHandler(io.Discard, nil)), players, st)
}

func playAll(t *testing.T, svc GameService, squares ...int) *entity.Snapshot {
	t.Helper()

	var snapshot *entity.Snapshot
	for _, square := range squares {
		var err error
		snapshot, err = svc.PlayerMove(context.Background(), square)
		require.NoError(t, err)
	}

	return snapshot
}

func TestGameService_PlayerMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful move is saved and notified", func(t *testing.T) {
		// Given: an empty game with a listener
		st := newFakeStore()
		svc := newService(st)

		notified := 0
		svc.Subscribe(func() { notified++ })

		// When: player 1 plays square 5
		snapshot, err := svc.PlayerMove(ctx, 5)

		// Then: the move is stored and the turn passes to player 2
		require.NoError(t, err)
		assert.Equal(t, players[1], snapshot.Game.CurrentPlayer)
		assert.Len(t, st.state.Moves, 1)
		assert.Equal(t, 1, st.saves)
		assert.Equal(t, 1, notified)
	})

	t.Run("Occupied square is a no-op", func(t *testing.T) {
		// Given: square 5 already played
		st := newFakeStore()
		svc := newService(st)
		playAll(t, svc, 5)
		before := st.state.Clone()

		notified := 0
		svc.Subscribe(func() { notified++ })

		// When: square 5 is played again
		snapshot, err := svc.PlayerMove(ctx, 5)

		// Then: ErrSquareOccupied, nothing saved, nobody notified
		require.ErrorIs(t, err, apperror.ErrSquareOccupied)
		assert.Equal(t, before, st.state)
		assert.Equal(t, 1, st.saves)
		assert.Zero(t, notified)
		assert.Equal(t, players[1], snapshot.Game.CurrentPlayer)
	})

	t.Run("Move after the round is won is rejected", func(t *testing.T) {
		st := newFakeStore()
		svc := newService(st)
		snapshot := playAll(t, svc, 1, 4, 2, 5, 3)
		require.True(t, snapshot.Game.Status.IsComplete)

		_, err := svc.PlayerMove(ctx, 9)

		require.ErrorIs(t, err, apperror.ErrRoundComplete)
		assert.Len(t, st.state.Moves, 5)
	})

	t.Run("Invalid square is an error", func(t *testing.T) {
		svc := newService(newFakeStore())

		snapshot, err := svc.PlayerMove(ctx, 42)

		require.ErrorIs(t, err, apperror.ErrInvalidSquare)
		assert.Nil(t, snapshot)
	})

	t.Run("Storage failure is returned", func(t *testing.T) {
		st := newFakeStore()
		st.err = errRedisDown
		svc := newService(st)

		_, err := svc.PlayerMove(ctx, 1)

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestGameService_NewRound(t *testing.T) {
	ctx := context.Background()

	// Given: a finished tie
	st := newFakeStore()
	svc := newService(st)
	playAll(t, svc, tieSquares...)

	// When: a new round starts
	snapshot, err := svc.NewRound(ctx)

	// Then: the tie is counted and the board is empty
	require.NoError(t, err)
	assert.Empty(t, snapshot.Game.Moves)
	assert.Equal(t, 1, snapshot.Stats.Ties)
	assert.Equal(t, players[0], snapshot.Game.CurrentPlayer)

	// And: a second round keeps the match stats
	playAll(t, svc, 1, 4, 2, 5, 3)
	snapshot, err = svc.NewRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Stats.Ties)
	assert.Equal(t, 1, snapshot.Stats.PlayerWithStats[0].Wins)
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()

	// Given: one archived win and a round in progress
	st := newFakeStore()
	svc := newService(st)
	playAll(t, svc, 1, 4, 2, 5, 3)
	_, err := svc.NewRound(ctx)
	require.NoError(t, err)
	playAll(t, svc, 1)

	// When: the match is reset
	snapshot, err := svc.Reset(ctx)

	// Then: stats are zero and the win is kept in allGames
	require.NoError(t, err)
	assert.Empty(t, snapshot.Game.Moves)
	assert.Equal(t, 0, snapshot.Stats.PlayerWithStats[0].Wins)
	assert.Len(t, st.state.History.AllGames, 1)
	assert.Empty(t, st.state.History.CurrentRoundGames)
}

func TestGameService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Snapshot is idempotent", func(t *testing.T) {
		st := newFakeStore()
		svc := newService(st)
		playAll(t, svc, 1, 2)

		first, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		second, err := svc.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, st.saves)
	})

	t.Run("Storage failure is returned", func(t *testing.T) {
		st := newFakeStore()
		st.err = errRedisDown

		_, err := newService(st).Snapshot(ctx)

		require.ErrorIs(t, err, errRedisDown)
	})
}
