package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/redis/go-redis/v9"
)

type TodoCache interface {
	GetTodoList(ctx context.Context) ([]models.Todo, error)
	SetTodoList(ctx context.Context, todos []models.Todo, ttl time.Duration) error
	DeleteTodoList(ctx context.Context) error
}

const todoListKey = "todos:list"

type RedisTodoCache struct {
	rdb *redis.Client
}

func NewRedisTodoCache(rdb *redis.Client) *RedisTodoCache {
	return &RedisTodoCache{rdb: rdb}
}

func (r *RedisTodoCache) GetTodoList(ctx context.Context) ([]models.Todo, error) {
	val, err := r.rdb.Get(ctx, todoListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}

	var todos []models.Todo
	if err := json.Unmarshal(val, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	return todos, nil
}

func (r *RedisTodoCache) SetTodoList(
	ctx context.Context,
	todos []models.Todo,
	ttl time.Duration,
) error {
	if todos == nil {
		todos = []models.Todo{}
	}

	data, err := json.Marshal(todos)
	if err != nil {
		return err
	}

	return r.rdb.Set(ctx, todoListKey, data, ttl).Err()
}

func (r *RedisTodoCache) DeleteTodoList(ctx context.Context) error {
	return r.rdb.Del(ctx, todoListKey).Err()
}

// NopTodoCache always misses. It is used when no Redis address is configured.
type NopTodoCache struct{}

func (NopTodoCache) GetTodoList(context.Context) ([]models.Todo, error) { return nil, nil }

func (NopTodoCache) SetTodoList(context.Context, []models.Todo, time.Duration) error { return nil }

func (NopTodoCache) DeleteTodoList(context.Context) error { return nil }
