package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/mkravets/go-todo-api/analytics"
	"github.com/mkravets/go-todo-api/db"
	"github.com/mkravets/go-todo-api/handlers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	dbConn := initDB()
	defer dbConn.Close()

	prepareSchema(dbConn)
	initHandlers(dbConn)
	server := initServer()
	startServer(server)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initDB() *sql.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getenv("DB_HOST", "localhost"),
		getenv("DB_USER", "localuser"),
		os.Getenv("DB_PASSWORD"),
		getenv("DB_NAME", "todo_db"),
		getenv("DB_PORT", "5432"))

	dbConn, err := db.Connect("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return dbConn
}

func prepareSchema(dbConn *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if getenv("SEED_DB", "true") == "true" {
		if err := db.Seed(ctx, dbConn, "postgres"); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
		return
	}
	if err := db.Migrate(ctx, dbConn, "postgres"); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}

func initHandlers(dbConn *sql.DB) *handlers.Handler {
	handler := &handlers.Handler{
		TodoRepo:    db.NewTodoRepository(dbConn),
		RateLimiter: handlers.NewRateLimiter(100, 15*time.Minute),
		Analytics: analytics.New(analytics.Config{
			MeasurementID: os.Getenv("GA_MEASUREMENT_ID"),
			APISecret:     os.Getenv("GA_API_SECRET"),
			Disabled:      os.Getenv("GA_DISABLED") == "true",
			Debug:         os.Getenv("GA_DEBUG") == "true",
		}),
	}
	http.HandleFunc("/", handlers.CORS(handleRoot))
	http.HandleFunc("/api/todos", handlers.CORS(handler.RateLimit(handler.HandleTodos)))
	http.HandleFunc("/api/todos/", handlers.CORS(handler.RateLimit(handler.HandleTodoByID)))
	return handler
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, "Hello World")
}

func initServer() *http.Server {
	return &http.Server{
		Addr: ":" + getenv("PORT", "3001"),
	}
}

func startServer(server *http.Server) {
	log.Printf("Starting todo server on %s", server.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
