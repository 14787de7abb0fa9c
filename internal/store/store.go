package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/repository"
)

type stateRepo interface {
	CreateOrUpdate(ctx context.Context, key string, state *entity.State) error
	GetByKey(ctx context.Context, key string) (*entity.State, error)
}

type broadcaster interface {
	Publish(ctx context.Context, channel, origin string) error
	Subscribe(ctx context.Context, channel string) (<-chan string, error)
}

// Listener - called after every state change, it has to load the state itself.
type Listener func()

// Store - keeps the game state under a single key and tells listeners when it changes.
//
// Writes made through this Store notify local listeners directly. Writes made by
// any other Store sharing the key arrive through the broadcaster and are picked up by Run.
type Store struct {
	logger *slog.Logger

	key     string
	channel string
	origin  string

	stateRepo   stateRepo
	broadcaster broadcaster

	listenersMutex sync.RWMutex
	listeners      map[uint64]Listener
	nextListenerID uint64
}

func New(logger *slog.Logger, stateRepo stateRepo, broadcaster broadcaster, key, channel string) *Store {
	origin := uuid.NewString()

	return &Store{
		logger: logger.With("component", "store", "origin", origin),

		key:     key,
		channel: channel,
		origin:  origin,

		stateRepo:   stateRepo,
		broadcaster: broadcaster,

		listeners: make(map[uint64]Listener),
	}
}

// Origin - identifies this store in published change events.
func (that *Store) Origin() string {
	return that.origin
}

// Load - returns the stored state or a fresh one when nothing usable is stored.
// Only storage failures are returned as errors.
func (that *Store) Load(ctx context.Context) (*entity.State, error) {
	log := that.logger.With("method", "Load")

	state, err := that.stateRepo.GetByKey(ctx, that.key)

	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		log.Debug("no stored state, using default")
		return entity.NewState(), nil
	case errors.Is(err, repository.ErrStateCorrupted):
		log.Warn("stored state is corrupted, using default", "error", err)
		return entity.NewState(), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	if !state.IsValidVersion() {
		log.Warn("stored state has unknown version, using default", "version", state.Version)
		return entity.NewState(), nil
	}

	if err = state.Validate(); err != nil {
		log.Warn("stored state breaks the game rules, using default", "error", err)
		return entity.NewState(), nil
	}

	return state, nil
}

// Save - persists a copy of the state and notifies listeners.
func (that *Store) Save(ctx context.Context, state *entity.State) error {
	if state == nil {
		panic("store: Save called with nil state")
	}

	log := that.logger.With("method", "Save")

	stateCopy := state.Clone()
	stateCopy.Version = entity.SchemaVersion

	if err := that.stateRepo.CreateOrUpdate(ctx, that.key, stateCopy); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	that.notify()

	// the state is already durable, other contexts catch up on their next load
	if err := that.broadcaster.Publish(ctx, that.channel, that.origin); err != nil {
		log.Error("failed to publish state change", "error", err)
	}

	return nil
}

// Update - loads the state, passes a copy to fn and saves what fn returns.
// Nothing is saved when fn fails.
func (that *Store) Update(ctx context.Context, fn func(prev *entity.State) (*entity.State, error)) (*entity.State, error) {
	if fn == nil {
		panic("store: Update called with nil function")
	}

	prev, err := that.Load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := fn(prev.Clone())
	if err != nil {
		return prev, err
	}

	if err = that.Save(ctx, next); err != nil {
		return nil, err
	}

	return next, nil
}

// Subscribe - registers the listener and returns a function that removes it.
func (that *Store) Subscribe(listener Listener) func() {
	if listener == nil {
		panic("store: Subscribe called with nil listener")
	}

	that.listenersMutex.Lock()
	id := that.nextListenerID
	that.nextListenerID++
	that.listeners[id] = listener
	that.listenersMutex.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			that.listenersMutex.Lock()
			delete(that.listeners, id)
			that.listenersMutex.Unlock()
		})
	}
}

// Run - delivers change events written by other stores until ctx is done.
func (that *Store) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	origins, err := that.broadcaster.Subscribe(ctx, that.channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to state changes: %w", err)
	}

	for origin := range origins {
		if origin == that.origin {
			continue
		}

		log.Debug("state changed in another context", "from", origin)
		that.notify()
	}

	log.Info("stopped listening for state changes")

	return nil
}

func (that *Store) notify() {
	that.listenersMutex.RLock()
	listeners := make([]Listener, 0, len(that.listeners))
	for _, listener := range that.listeners {
		listeners = append(listeners, listener)
	}
	that.listenersMutex.RUnlock()

	for _, listener := range listeners {
		listener()
	}
}
