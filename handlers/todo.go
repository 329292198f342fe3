package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/go-todo-api/analytics"
	"github.com/mkravets/go-todo-api/db"
	"github.com/mkravets/go-todo-api/validation"
)

/*
handles routes:
- GET /api/todos - list todos
- POST /api/todos - create a new todo
*/
func (h *Handler) HandleTodos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTodos(w, r)
	case http.MethodPost:
		h.createTodo(w, r)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	todos, err := h.TodoRepo.List(ctx)
	if err != nil {
		log.Printf("list todos: %v", err)
		sendError(w, "Failed to fetch todos", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, todos)
}

func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	body, err := io.ReadAll(r.Body)
	if err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	title, verr := validation.ValidateCreate(body)
	if verr != nil {
		sendValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	todo, err := h.TodoRepo.Create(ctx, title)
	if err != nil {
		log.Printf("create todo: %v", err)
		sendError(w, "Failed to create todo", http.StatusInternalServerError)
		return
	}
	h.Analytics.Track(analytics.EventTodoCreated, map[string]any{"todo_id": todo.ID})
	sendJSON(w, http.StatusCreated, todo)
}

/*
routes:
- PUT /api/todos/{id}
- DELETE /api/todos/{id}
*/
func (h *Handler) HandleTodoByID(w http.ResponseWriter, r *http.Request) {
	rawID := strings.TrimPrefix(r.URL.Path, "/api/todos/")
	if rawID == "" {
		// bare trailing slash matches no route
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateTodo(w, r, rawID)
	case http.MethodDelete:
		h.deleteTodo(w, r, rawID)
	default:
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request, rawID string) {
	if !isJSONContentType(r) {
		sendError(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	body, err := io.ReadAll(r.Body)
	if err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	// path and body are validated together so the client sees every
	// failure in one response
	id, idErr := validation.ValidateID(rawID)
	patch, bodyErr := validation.ValidateUpdate(body)
	if verr := validation.Join(idErr, bodyErr); verr != nil {
		sendValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	existing, err := h.TodoRepo.GetByID(ctx, id)
	if err != nil {
		log.Printf("update todo %d: %v", id, err)
		sendError(w, "Failed to update todo", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		sendError(w, "Todo not found", http.StatusNotFound)
		return
	}

	todo, err := h.TodoRepo.Update(ctx, id, patch)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Todo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("update todo %d: %v", id, err)
		sendError(w, "Failed to update todo", http.StatusInternalServerError)
		return
	}

	h.Analytics.Track(analytics.EventTodoUpdated, map[string]any{"todo_id": todo.ID})
	if patch.Completed != nil && *patch.Completed {
		h.Analytics.Track(analytics.EventTodoCompleted, map[string]any{"todo_id": todo.ID})
	}
	sendJSON(w, http.StatusOK, todo)
}

func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request, rawID string) {
	id, verr := validation.ValidateID(rawID)
	if verr != nil {
		sendValidationError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	err := h.TodoRepo.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, "Todo not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("delete todo %d: %v", id, err)
		sendError(w, "Failed to delete todo", http.StatusInternalServerError)
		return
	}

	h.Analytics.Track(analytics.EventTodoDeleted, map[string]any{"todo_id": id})
	sendJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted successfully"})
}
