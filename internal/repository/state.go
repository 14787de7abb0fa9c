package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rounds/internal/entity"
)

var (
	ErrStateNotFound  = errors.New("state not found")
	ErrStateCorrupted = errors.New("state is corrupted")
)

type StateRepository interface {
	CreateOrUpdate(ctx context.Context, key string, state *entity.State) error
	GetByKey(ctx context.Context, key string) (*entity.State, error)
}

type dbState struct {
	client *redis.Client
}

func NewStateRepository(client *redis.Client) StateRepository {
	return &dbState{
		client: client,
	}
}

func (that *dbState) CreateOrUpdate(ctx context.Context, key string, state *entity.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}

	err = that.client.Set(ctx, stateKey(key), stateJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set state: %w", err)
	}

	return nil
}

func (that *dbState) GetByKey(ctx context.Context, key string) (*entity.State, error) {
	response, err := that.client.Get(ctx, stateKey(key)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get state by key: %w", err)
	}

	var existingState entity.State
	if err = json.Unmarshal([]byte(response), &existingState); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStateCorrupted, err)
	}

	existingState.Normalize()

	return &existingState, nil
}

func stateKey(key string) string {
	return "state:" + key
}
