package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the layout of CreatedAt: UTC, millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// FormatTimestamp renders t the way CreatedAt is stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Optional records whether a JSON key was sent at all, and whether it was null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only called by encoding/json when the key is present.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// CreateTodoRequest is the body of POST /api/todos.
type CreateTodoRequest struct {
	Title     Optional[string] `json:"title"`
	Completed Optional[bool]   `json:"completed"`
}

// TodoPatch is the body of PUT /api/todos/:id. Absent keys leave the
// stored value untouched.
type TodoPatch struct {
	Title     Optional[string] `json:"title"`
	Completed Optional[bool]   `json:"completed"`
}

// Apply returns t with every present field of p written over it.
// ID and CreatedAt are never touched.
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Completed.Set {
		t.Completed = p.Completed.Value
	}
	return t
}
