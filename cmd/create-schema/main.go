package main

import (
	"context"
	"fmt"
	"log"

	"goyo-backend/config"
	"goyo-backend/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	ctx := context.Background()

	for _, t := range repository.Tables() {
		if _, err := pool.Exec(ctx, t.SQL); err != nil {
			log.Fatalf("Failed to create %s table: %v", t.Name, err)
		}
		log.Printf("✓ Created table: %s", t.Name)
	}

	for _, idx := range repository.Indexes() {
		if _, err := pool.Exec(ctx, idx.SQL); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.Name, err)
		} else {
			log.Printf("✓ Created index: %s", idx.Name)
		}
	}

	fmt.Println("\n✅ Database schema created successfully!")
}
