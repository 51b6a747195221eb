package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/lukejcn/task-manager/config"
	"github.com/lukejcn/task-manager/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "Passphrase1"
	name := "Demo User"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (name, age, email, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name, 30, email, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s password=%s\n", id, email, name, password)

	titles := []string{"Buy groceries", "Write weekly report", "Book dentist appointment"}
	for i, title := range titles {
		if _, err := db.Exec(`
			INSERT INTO tasks (title, status, owner_id)
			VALUES ($1, $2, $3)
		`, title, i == 0, id); err != nil {
			log.Fatalf("failed to seed task %q: %v", title, err)
		}
	}
	fmt.Printf("seeded %d tasks for %s\n", len(titles), email)
}
