package repositories

import (
	"context"
	"sync"

	"github.com/kalpovskii/todos/internal/app/models"
)

// MemoryTodoRepo is a TodoStore that never touches disk. Callers get
// copies, so mutating a loaded slice has no effect until SaveAll.
type MemoryTodoRepo struct {
	mu    sync.RWMutex
	todos []models.Todo
	saves int
}

func NewMemoryTodoRepo(seed ...models.Todo) *MemoryTodoRepo {
	return &MemoryTodoRepo{todos: clone(seed)}
}

func (r *MemoryTodoRepo) EnsureInitialized(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryTodoRepo) LoadAll(ctx context.Context) ([]models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.todos), nil
}

func (r *MemoryTodoRepo) SaveAll(ctx context.Context, todos []models.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.todos = clone(todos)
	r.saves++
	return nil
}

// Saves reports how many times SaveAll succeeded. Service and handler
// tests use it to assert that rejected requests never write.
func (r *MemoryTodoRepo) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

func clone(todos []models.Todo) []models.Todo {
	out := make([]models.Todo, len(todos))
	copy(out, todos)
	return out
}
