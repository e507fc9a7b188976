package models

import "time"

type TodoAction string

const (
	ActionCreated TodoAction = "created"
	ActionUpdated TodoAction = "updated"
	ActionDeleted TodoAction = "deleted"
)

// TodoEvent is published after every successful write.
type TodoEvent struct {
	Action TodoAction `json:"action"`
	Todo   Todo       `json:"todo"`
	At     time.Time  `json:"at"`
}
