package db

import (
	"context"
	"database/sql"
	"fmt"
)

func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

// Migrate creates the todos table. The id column syntax differs between
// engines, so the driver name picks the DDL variant.
func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	idColumn := "BIGSERIAL PRIMARY KEY"
	if driverName == "sqlite3" {
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS todos (
  id %s,
  title TEXT NOT NULL,
  completed BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`, idColumn)
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// Seed drops and recreates the todos table with a few demo rows.
func Seed(ctx context.Context, db *sql.DB, driverName string) error {
	if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS todos`); err != nil {
		return err
	}
	if err := Migrate(ctx, db, driverName); err != nil {
		return err
	}
	repo := NewTodoRepository(db)
	for _, title := range []string{"Buy groceries", "Finish the project", "Call the doctor"} {
		if _, err := repo.Create(ctx, title); err != nil {
			return err
		}
	}
	return nil
}
