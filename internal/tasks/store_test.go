package tasks

import (
	"errors"
	"sync"
	"testing"
)

func TestStoreCreateThenList(t *testing.T) {
	s := NewStore()
	created := s.Create(Fields{Title: "A", Description: "", Status: "todo"})
	if created.ID == "" {
		t.Fatalf("created.ID empty")
	}

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("List() len = %d, want 1", len(list))
	}
	got := list[0]
	if got.ID != created.ID {
		t.Fatalf("List()[0].ID = %q, want %q", got.ID, created.ID)
	}
	if got.Title != "A" || got.Description != "" || got.Status != "todo" {
		t.Fatalf("List()[0] = %+v, want title=A description=\"\" status=todo", got)
	}
}

func TestStoreCreateIDsUnique(t *testing.T) {
	s := NewStore()
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		task := s.Create(Fields{Title: "t", Status: "todo"})
		if task.ID == "" {
			t.Fatalf("create %d returned empty id", i)
		}
		if seen[task.ID] {
			t.Fatalf("create %d returned duplicate id %q", i, task.ID)
		}
		seen[task.ID] = true
	}
	if s.Len() != 10000 {
		t.Fatalf("Len() = %d, want 10000", s.Len())
	}
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	task := s.Create(Fields{Title: "A", Status: "todo"})

	updated, err := s.Update(task.ID, Fields{Title: "B", Description: "d", Status: "done"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ID != task.ID {
		t.Fatalf("updated.ID = %q, want %q", updated.ID, task.ID)
	}
	if updated.Title != "B" || updated.Description != "d" || updated.Status != "done" {
		t.Fatalf("updated = %+v", updated)
	}

	got, err := s.Get(task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != updated {
		t.Fatalf("Get() = %+v, want %+v", got, updated)
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	s := NewStore()
	s.Create(Fields{Title: "A", Status: "todo"})

	_, err := s.Update("missing", Fields{Title: "B", Status: "done"})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("Update(missing) error = %v, want ErrTaskNotFound", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreDeleteTwice(t *testing.T) {
	s := NewStore()
	keep := s.Create(Fields{Title: "keep", Status: "todo"})
	task := s.Create(Fields{Title: "A", Description: "x", Status: "todo"})

	deleted, err := s.Delete(task.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != task {
		t.Fatalf("Delete() = %+v, want %+v", deleted, task)
	}
	list := s.List()
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("List() after delete = %+v, want only %q", list, keep.ID)
	}

	if _, err := s.Delete(task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrTaskNotFound", err)
	}
}

func TestStoreListKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	a := s.Create(Fields{Title: "a", Status: "todo"})
	b := s.Create(Fields{Title: "b", Status: "todo"})
	c := s.Create(Fields{Title: "c", Status: "todo"})
	if _, err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete(b) error = %v", err)
	}
	d := s.Create(Fields{Title: "d", Status: "todo"})

	list := s.List()
	want := []string{a.ID, c.ID, d.ID}
	if len(list) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("List()[%d].ID = %q, want %q", i, list[i].ID, id)
		}
	}
}

func TestStoreListReturnsCopies(t *testing.T) {
	s := NewStore()
	task := s.Create(Fields{Title: "A", Status: "todo"})

	list := s.List()
	list[0].Title = "mutated"

	got, err := s.Get(task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "A" {
		t.Fatalf("store title = %q after mutating List() result, want %q", got.Title, "A")
	}
}

func TestStoreSubscribeReceivesEvents(t *testing.T) {
	s := NewStore()
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	task := s.Create(Fields{Title: "A", Status: "todo"})
	if _, err := s.Update(task.ID, Fields{Title: "B", Status: "done"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := s.Delete(task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []EventType{EventTaskCreated, EventTaskUpdated, EventTaskDeleted}
	for i, typ := range want {
		evt := <-events
		if evt.Type != typ {
			t.Fatalf("event %d type = %q, want %q", i, evt.Type, typ)
		}
		if evt.Task.ID != task.ID {
			t.Fatalf("event %d task id = %q, want %q", i, evt.Task.ID, task.ID)
		}
	}
}

func TestStoreUnsubscribeClosesChannel(t *testing.T) {
	s := NewStore()
	events, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	if _, ok := <-events; ok {
		t.Fatalf("channel still open after unsubscribe")
	}
	// Publishing with no subscribers must not block or panic.
	s.Create(Fields{Title: "A", Status: "todo"})
}

func TestStoreConcurrentMutations(t *testing.T) {
	s := NewStore()
	seed := s.Create(Fields{Title: "seed", Status: "todo"})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				created := s.Create(Fields{Title: "x", Status: "todo"})
				_, _ = s.Update(seed.ID, Fields{Title: "y", Status: "doing"})
				_ = s.List()
				_, _ = s.Delete(created.ID)
			}
		}()
	}
	wg.Wait()

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}
