package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/kalpovskii/todos/internal/app/models"
)

// ErrCorruptStore is returned when the data file exists but does not parse.
// The Koa service this replaces read such a file as [] and overwrote it on
// the next write; here the file is left alone and the error surfaces.
var ErrCorruptStore = errors.New("todo store is corrupt")

// TodoStore reads and writes the whole collection as one unit.
type TodoStore interface {
	EnsureInitialized(ctx context.Context) error
	LoadAll(ctx context.Context) ([]models.Todo, error)
	SaveAll(ctx context.Context, todos []models.Todo) error
}

// FileTodoRepo keeps the collection as a pretty-printed JSON array in a
// single file.
type FileTodoRepo struct {
	path string
	mu   sync.RWMutex
}

func NewFileTodoRepo(path string) *FileTodoRepo {
	return &FileTodoRepo{path: path}
}

func (r *FileTodoRepo) EnsureInitialized(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", r.path, err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return r.write([]byte("[]"))
}

func (r *FileTodoRepo) LoadAll(ctx context.Context) ([]models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []models.Todo{}, nil
	}

	var todos []models.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, r.path, err)
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

func (r *FileTodoRepo) SaveAll(ctx context.Context, todos []models.Todo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if todos == nil {
		todos = []models.Todo{}
	}

	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(b)
}

// write replaces the file atomically, so a reader never sees a
// half-written document.
func (r *FileTodoRepo) write(b []byte) error {
	if err := renameio.WriteFile(r.path, b, 0o644, renameio.WithTempDir(filepath.Dir(r.path))); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
