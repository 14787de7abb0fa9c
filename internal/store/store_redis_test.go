package store

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/repository"
	redistransport "github.com/rocketscienceinc/tictactoe-rounds/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-rounds/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CrossContext(t *testing.T) {
	ctx, st := suite.New(t)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Given: two stores sharing one key, like two open tabs
	newStore := func() *Store {
		return New(st.Logger, repository.NewStateRepository(st.Storage),
			redistransport.New(st.Logger, st.Storage), st.Key, st.Channel)
	}

	writer := newStore()
	reader := newStore()

	writerEvents := make(chan struct{}, 4)
	readerEvents := make(chan struct{}, 4)
	writer.Subscribe(signal(writerEvents))
	reader.Subscribe(signal(readerEvents))

	for _, s := range []*Store{writer, reader} {
		go func(s *Store) { _ = s.Run(runCtx) }(s)
	}

	state := entity.NewState()
	state.Moves = append(state.Moves, entity.Move{SquareID: 5, Player: entity.DefaultPlayers()[0]})

	// When: the writer saves
	require.NoError(t, writer.Save(ctx, state))

	// Then: the writer is notified locally
	select {
	case <-writerEvents:
	case <-time.After(5 * time.Second):
		t.Fatal("writer was not notified")
	}

	// And: the reader is notified through pub/sub and loads the same state.
	// Run subscribes asynchronously, so the writer saves again until the reader hears it.
	require.Eventually(t, func() bool {
		select {
		case <-readerEvents:
			return true
		default:
			_ = writer.Save(ctx, state)
			return false
		}
	}, 10*time.Second, 100*time.Millisecond)

	loaded, err := reader.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func signal(events chan struct{}) Listener {
	return func() {
		select {
		case events <- struct{}{}:
		default:
		}
	}
}
