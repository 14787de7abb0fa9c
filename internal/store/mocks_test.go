package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/repository"
	"github.com/stretchr/testify/mock"
)

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) CreateOrUpdate(ctx context.Context, key string, state *entity.State) error {
	args := m.Called(ctx, key, state)
	return args.Error(0)
}

func (m *mockStateRepo) GetByKey(ctx context.Context, key string) (*entity.State, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(*entity.State), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Publish(ctx context.Context, channel, origin string) error {
	args := m.Called(ctx, channel, origin)
	return args.Error(0)
}

func (m *mockBroadcaster) Subscribe(ctx context.Context, channel string) (<-chan string, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(<-chan string), args.Error(1)
}

// memoryRepo - keeps encoded records in a map, like a single redis database.
type memoryRepo struct {
	mu      sync.Mutex
	records map[string][]byte
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string][]byte)}
}

func (m *memoryRepo) CreateOrUpdate(_ context.Context, key string, state *entity.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = data

	return nil
}

func (m *memoryRepo) GetByKey(_ context.Context, key string) (*entity.State, error) {
	m.mu.Lock()
	data, ok := m.records[key]
	m.mu.Unlock()

	if !ok {
		return nil, repository.ErrStateNotFound
	}

	var state entity.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, repository.ErrStateCorrupted
	}

	state.Normalize()

	return &state, nil
}

// nopBroadcaster - a broadcaster with nobody else listening.
type nopBroadcaster struct{}

func (nopBroadcaster) Publish(context.Context, string, string) error { return nil }

func (nopBroadcaster) Subscribe(ctx context.Context, _ string) (<-chan string, error) {
	origins := make(chan string)
	go func() {
		<-ctx.Done()
		close(origins)
	}()

	return origins, nil
}
