package tasks

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

const subscriberBuffer = 256

// Store is the authoritative in-memory collection of tasks. All access goes
// through its methods; the backing map is never handed out.
type Store struct {
	mu sync.RWMutex

	tasks map[string]*Task
	order []string

	subscribers map[int]chan Event
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		tasks:       make(map[string]*Task),
		subscribers: make(map[int]chan Event),
	}
}

// Subscribe registers a listener for store mutations. Events are dropped for
// a subscriber whose buffer is full. The returned func unsubscribes and
// closes the channel.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
}

func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *t, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Create stores a new task under a freshly generated random id.
func (s *Store) Create(f Fields) Task {
	task := &Task{ID: uuid.NewString()}
	task.apply(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(task)
	out := *task
	s.publishLocked(Event{Type: EventTaskCreated, Task: out, At: time.Now().UTC()})
	return out
}

// Update overwrites title, description and status of an existing task.
func (s *Store) Update(id string, f Fields) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	task.apply(f)
	out := *task
	s.publishLocked(Event{Type: EventTaskUpdated, Task: out, At: time.Now().UTC()})
	return out, nil
}

// Delete removes a task and returns its last known contents.
func (s *Store) Delete(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	delete(s.tasks, id)
	for i, key := range s.order {
		if key == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	out := *task
	s.publishLocked(Event{Type: EventTaskDeleted, Task: out, At: time.Now().UTC()})
	return out, nil
}

// replace swaps the whole collection. Records keep the position of the first
// occurrence of their id and the values of the last one.
func (s *Store) replace(records []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]*Task, len(records))
	s.order = s.order[:0]
	for i := range records {
		task := records[i]
		s.insertLocked(&task)
	}
}

func (s *Store) insertLocked(task *Task) {
	if _, exists := s.tasks[task.ID]; !exists {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task
}

func (s *Store) publishLocked(evt Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
