package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkravets/go-todo-api/models"
)

func setupTodosDB(t *testing.T) *sql.DB {
	t.Helper()
	dbx, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbx.Close() })
	if err := Migrate(context.Background(), dbx, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbx
}

func TestTodoRepository_Create_Get_Update_Delete_List(t *testing.T) {
	dbx := setupTodosDB(t)
	repo := NewTodoRepository(dbx)
	ctx := context.Background()

	// Create
	todo, err := repo.Create(ctx, "First todo")
	if err != nil {
		t.Fatalf("TodoRepository.Create: %v", err)
	}
	if todo.ID <= 0 {
		t.Fatalf("expected positive store-assigned id, got %d", todo.ID)
	}
	if todo.Title != "First todo" || todo.Completed {
		t.Errorf("unexpected created todo: %+v", todo)
	}
	if todo.CreatedAt.IsZero() || !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Errorf("timestamps not set on create: %+v", todo)
	}

	// GetByID
	got, err := repo.GetByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("TodoRepository.GetByID: %v", err)
	}
	if got == nil || got.ID != todo.ID || got.Title != "First todo" {
		t.Errorf("GetByID mismatch: %#v", got)
	}

	// Update title only
	newTitle := "Updated"
	after, err := repo.Update(ctx, todo.ID, patchTitle(newTitle))
	if err != nil {
		t.Fatalf("TodoRepository.Update: %v", err)
	}
	if after.Title != "Updated" || after.Completed {
		t.Errorf("Update not applied: %#v", after)
	}
	if after.UpdatedAt.Before(todo.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", todo.UpdatedAt, after.UpdatedAt)
	}

	// List
	second, err := repo.Create(ctx, "Second todo")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("TodoRepository.List: %v", err)
	}
	if len(list) != 2 || list[0].ID != todo.ID || list[1].ID != second.ID {
		t.Errorf("List unexpected order or length: %+v", list)
	}

	// Delete
	if err := repo.Delete(ctx, todo.ID); err != nil {
		t.Fatalf("TodoRepository.Delete: %v", err)
	}
	gone, err := repo.GetByID(ctx, todo.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if gone != nil {
		t.Errorf("expected nil record after delete, got %#v", gone)
	}
}

func TestTodoRepository_PartialPatchLeavesOtherFields(t *testing.T) {
	dbx := setupTodosDB(t)
	repo := NewTodoRepository(dbx)
	ctx := context.Background()

	todo, err := repo.Create(ctx, "Keep my title")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed := true
	after, err := repo.Update(ctx, todo.ID, patchCompleted(completed))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !after.Completed {
		t.Error("completed not applied")
	}
	if after.Title != "Keep my title" {
		t.Errorf("title changed by completed-only patch: %q", after.Title)
	}
	if !after.CreatedAt.Equal(todo.CreatedAt) {
		t.Errorf("createdAt changed: %v -> %v", todo.CreatedAt, after.CreatedAt)
	}
}

func TestTodoRepository_NotFoundVariants(t *testing.T) {
	dbx := setupTodosDB(t)
	repo := NewTodoRepository(dbx)
	ctx := context.Background()

	// absence from GetByID is not an error
	got, err := repo.GetByID(ctx, 99999)
	if err != nil {
		t.Fatalf("GetByID on missing id should not error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil record, got %#v", got)
	}

	if _, err := repo.Update(ctx, 99999, patchTitle("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update on missing id: err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, 99999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete on missing id: err = %v, want ErrNotFound", err)
	}
}

func TestTodoRepository_DeleteTwice(t *testing.T) {
	dbx := setupTodosDB(t)
	repo := NewTodoRepository(dbx)
	ctx := context.Background()

	todo, err := repo.Create(ctx, "short-lived")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, todo.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := repo.Delete(ctx, todo.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestTodoRepository_IDsAreNotReused(t *testing.T) {
	dbx := setupTodosDB(t)
	repo := NewTodoRepository(dbx)
	ctx := context.Background()

	first, err := repo.Create(ctx, "first")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second, err := repo.Create(ctx, "second")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("id reused or not monotonic: %d after %d", second.ID, first.ID)
	}
}

func TestSeed(t *testing.T) {
	dbx := setupTodosDB(t)
	ctx := context.Background()

	if err := Seed(ctx, dbx, "sqlite3"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// seeding again recreates the table instead of stacking rows
	if err := Seed(ctx, dbx, "sqlite3"); err != nil {
		t.Fatalf("Seed twice: %v", err)
	}

	list, err := NewTodoRepository(dbx).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Buy groceries", "Finish the project", "Call the doctor"}
	if len(list) != len(want) {
		t.Fatalf("expected %d seeded todos, got %d", len(want), len(list))
	}
	for i, title := range want {
		if list[i].Title != title {
			t.Errorf("seed row %d = %q, want %q", i, list[i].Title, title)
		}
		if list[i].Completed {
			t.Errorf("seed row %d should not be completed", i)
		}
	}
}

func TestConnect_BadDSN(t *testing.T) {
	if _, err := Connect("sqlite3", "file:/nonexistent-dir-zzz/db.sqlite?mode=ro"); err == nil {
		t.Error("expected connect error for unreachable database")
	}
}

func patchTitle(title string) models.TodoPatch {
	return models.TodoPatch{Title: &title}
}

func patchCompleted(completed bool) models.TodoPatch {
	return models.TodoPatch{Completed: &completed}
}
