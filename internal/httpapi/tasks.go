package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/taskboard/internal/tasks"
)

const taskNotFoundDetail = "Task not found"

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	list := s.store.List()
	s.metrics.ObserveTaskOp("list", "ok", len(list))
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	fields, issues := decodeTaskFields(r)
	if issues != nil {
		s.metrics.ObserveTaskOp("create", "invalid", s.store.Len())
		respondError(w, http.StatusUnprocessableEntity, issues)
		return
	}

	task := s.store.Create(fields)
	s.metrics.ObserveTaskOp("create", "ok", s.store.Len())
	s.logger.Info("task created", "task_id", task.ID, "status", task.Status)
	respondJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	fields, issues := decodeTaskFields(r)
	if issues != nil {
		s.metrics.ObserveTaskOp("update", "invalid", s.store.Len())
		respondError(w, http.StatusUnprocessableEntity, issues)
		return
	}

	task, err := s.store.Update(taskID, fields)
	if err != nil {
		s.respondStoreError(w, "update", taskID, err)
		return
	}
	s.metrics.ObserveTaskOp("update", "ok", s.store.Len())
	s.logger.Info("task updated", "task_id", task.ID, "status", task.Status)
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	task, err := s.store.Delete(taskID)
	if err != nil {
		s.respondStoreError(w, "delete", taskID, err)
		return
	}
	s.metrics.ObserveTaskOp("delete", "ok", s.store.Len())
	s.logger.Info("task deleted", "task_id", task.ID)
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) respondStoreError(w http.ResponseWriter, op, taskID string, err error) {
	if errors.Is(err, tasks.ErrTaskNotFound) {
		s.metrics.ObserveTaskOp(op, "not_found", s.store.Len())
		respondError(w, http.StatusNotFound, taskNotFoundDetail)
		return
	}
	s.metrics.ObserveTaskOp(op, "error", s.store.Len())
	s.logger.Error("task operation failed", "op", op, "task_id", taskID, "error", err)
	respondError(w, http.StatusInternalServerError, "Internal Server Error")
}
