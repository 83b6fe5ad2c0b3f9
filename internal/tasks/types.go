package tasks

import "time"

// Task is the single entity kept by the board. ID is assigned by the store
// and never changes once set.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Fields is the client-controlled part of a task. Create and Update only
// accept Fields, so a caller cannot choose or change an id.
type Fields struct {
	Title       string
	Description string
	Status      string
}

type EventType string

const (
	EventTaskCreated EventType = "task_created"
	EventTaskUpdated EventType = "task_updated"
	EventTaskDeleted EventType = "task_deleted"
)

// Event describes a single mutation of the store. Task carries the record
// after the change, or the removed record for EventTaskDeleted.
type Event struct {
	Type EventType `json:"type"`
	Task Task      `json:"task"`
	At   time.Time `json:"at"`
}

func (t *Task) apply(f Fields) {
	t.Title = f.Title
	t.Description = f.Description
	t.Status = f.Status
}
