package main

import (
	"context"
	"log"
	"os"

	"github.com/ignite/engagement-analytics/internal/bootstrap"
	"github.com/ignite/engagement-analytics/internal/config"
	"github.com/ignite/engagement-analytics/internal/repository/postgres"
)

// Usage: migrate [up|down|status]. DATABASE_URL is required.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	db, err := bootstrap.OpenDB(context.Background(), config.DatabaseConfig{URL: dsn, MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(db, command); err != nil {
		log.Fatalf("migrate %s: %v", command, err)
	}
	log.Printf("migrate %s complete", command)
}
