// Command seed populates the specialty/doctor catalog and a two-week
// availability calendar. Safe to run repeatedly: it goes through the
// find-or-create paths.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/assortclinic/clinic-mate/internal/store"
)

func main() {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	if err := store.Seed(ctx, store.NewPostgresStore(pool), time.Now()); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seed complete")
}
