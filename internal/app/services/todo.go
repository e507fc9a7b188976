package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/kalpovskii/todos/internal/app/repositories"
)

const todoListTTL = 15 * time.Second

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTodoNotFound  = errors.New("todo not found")
	ErrNullField     = errors.New("must not be null")
)

// EventPublisher receives a TodoEvent after every successful write.
type EventPublisher interface {
	Publish(ctx context.Context, event models.TodoEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.TodoEvent) {}

// TodoService runs each operation as one load-modify-save cycle over the
// whole collection. Writes hold mu for the full cycle so concurrent
// requests cannot lose each other's updates.
type TodoService struct {
	store  repositories.TodoStore
	cache  repositories.TodoCache
	events EventPublisher
	logger *log.Logger

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

type Option func(*TodoService)

func WithCache(cache repositories.TodoCache) Option {
	return func(s *TodoService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithEvents(events EventPublisher) Option {
	return func(s *TodoService) {
		if events != nil {
			s.events = events
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *TodoService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *TodoService) { s.newID = newID }
}

func NewTodoService(store repositories.TodoStore, opts ...Option) *TodoService {
	s := &TodoService{
		store:  store,
		cache:  repositories.NopTodoCache{},
		events: nopPublisher{},
		logger: log.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoService) List(ctx context.Context) ([]models.Todo, error) {
	if todos, err := s.cache.GetTodoList(ctx); err == nil && todos != nil {
		return todos, nil
	} else if err != nil {
		s.logger.Warn("todo list cache read failed", "err", err)
	}

	// Filling the cache under mu keeps a concurrent write from being
	// followed by a stale fill.
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetTodoList(ctx, todos, todoListTTL); err != nil {
		s.logger.Warn("todo list cache write failed", "err", err)
	}

	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, req models.CreateTodoRequest) (*models.Todo, error) {
	if !req.Title.Set || req.Title.Null || req.Title.Value == "" {
		return nil, ErrTitleRequired
	}

	todo, err := s.create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ActionCreated, todo)
	return &todo, nil
}

func (s *TodoService) create(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Todo{}, err
	}

	todo := models.Todo{
		ID:        s.newID(),
		Title:     req.Title.Value,
		Completed: req.Completed.Set && req.Completed.Value,
		CreatedAt: models.FormatTimestamp(s.now()),
	}

	todos = append(todos, todo)
	if err := s.store.SaveAll(ctx, todos); err != nil {
		return models.Todo{}, err
	}

	s.invalidateList(ctx)
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, id string, patch models.TodoPatch) (*models.Todo, error) {
	if patch.Title.Null {
		return nil, fmt.Errorf("title %w", ErrNullField)
	}
	if patch.Completed.Null {
		return nil, fmt.Errorf("completed %w", ErrNullField)
	}

	updated, err := s.update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.ActionUpdated, updated)
	return &updated, nil
}

func (s *TodoService) update(ctx context.Context, id string, patch models.TodoPatch) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Todo{}, err
	}

	idx := indexOf(todos, id)
	if idx == -1 {
		return models.Todo{}, ErrTodoNotFound
	}

	updated := patch.Apply(todos[idx])
	todos[idx] = updated
	if err := s.store.SaveAll(ctx, todos); err != nil {
		return models.Todo{}, err
	}

	s.invalidateList(ctx)
	return updated, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	removed, err := s.delete(ctx, id)
	if err != nil {
		return err
	}

	s.publish(ctx, models.ActionDeleted, removed)
	return nil
}

func (s *TodoService) delete(ctx context.Context, id string) (models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadAll(ctx)
	if err != nil {
		return models.Todo{}, err
	}

	var removed *models.Todo
	kept := todos[:0]
	for i := range todos {
		if todos[i].ID == id {
			if removed == nil {
				t := todos[i]
				removed = &t
			}
			continue
		}
		kept = append(kept, todos[i])
	}
	if removed == nil {
		return models.Todo{}, ErrTodoNotFound
	}

	if err := s.store.SaveAll(ctx, kept); err != nil {
		return models.Todo{}, err
	}

	s.invalidateList(ctx)
	return *removed, nil
}

// invalidateList must run under mu, before a concurrent List can refill.
func (s *TodoService) invalidateList(ctx context.Context) {
	if err := s.cache.DeleteTodoList(ctx); err != nil {
		s.logger.Warn("todo list cache invalidation failed", "err", err)
	}
}

// publish runs after mu is released so a slow broker only delays the
// request that wrote. The event outlives a client that hangs up.
func (s *TodoService) publish(ctx context.Context, action models.TodoAction, todo models.Todo) {
	s.events.Publish(context.WithoutCancel(ctx), models.TodoEvent{Action: action, Todo: todo, At: s.now()})
}

func indexOf(todos []models.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}
