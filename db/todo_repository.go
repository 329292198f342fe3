package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mkravets/go-todo-api/models"
)

// ErrNotFound signals that no todo exists for the given id. Absence is a
// result variant, not a connectivity failure; callers map it to a 404.
var ErrNotFound = errors.New("todo not found")

// defines methods for todo db operations
type TodoRepositoryInterface interface {
	List(ctx context.Context) ([]*models.Todo, error)
	Create(ctx context.Context, title string) (*models.Todo, error)
	GetByID(ctx context.Context, id int64) (*models.Todo, error)
	Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id int64) error
}

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) List(ctx context.Context) ([]*models.Todo, error) {
	query := `SELECT id, title, completed, created_at, updated_at FROM todos ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		todo := &models.Todo{}
		if err := rows.Scan(
			&todo.ID, &todo.Title, &todo.Completed, &todo.CreatedAt, &todo.UpdatedAt,
		); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *TodoRepository) Create(ctx context.Context, title string) (*models.Todo, error) {
	now := time.Now().UTC()
	todo := &models.Todo{
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// lib/pq has no LastInsertId, so the id comes back via RETURNING.
	query := `INSERT INTO todos (title, completed, created_at, updated_at)
	 VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(
		ctx, query, todo.Title, todo.Completed, todo.CreatedAt, todo.UpdatedAt,
	).Scan(&todo.ID)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	query := `SELECT id, title, completed, created_at, updated_at FROM todos WHERE id = $1`
	todo := &models.Todo{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&todo.ID, &todo.Title, &todo.Completed, &todo.CreatedAt, &todo.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// Update applies the patch in a single statement. COALESCE keeps the
// stored value for absent fields, so a concurrent write is never clobbered
// with stale data read in an earlier fetch. Only title and completed can
// ever change.
func (r *TodoRepository) Update(ctx context.Context, id int64, patch models.TodoPatch) (*models.Todo, error) {
	query := `UPDATE todos
	 SET title = COALESCE($1, title), completed = COALESCE($2, completed), updated_at = $3
	 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, patch.Title, patch.Completed, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	todo, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		// deleted between the update and the read-back
		return nil, ErrNotFound
	}
	return todo, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
