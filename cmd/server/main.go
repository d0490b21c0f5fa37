package main

import (
	"context"
	"log"
	"os"

	"github.com/dgomez/bid-harvester/internal/api"
	"github.com/dgomez/bid-harvester/internal/db"
	"github.com/dgomez/bid-harvester/internal/scrape"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}
	outputRoot := os.Getenv("HARVEST_OUTPUT")
	if outputRoot == "" {
		outputRoot = "harvest_output"
	}

	registry, err := scrape.LoadRegistry("internal/scrape/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load source registry: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv := api.NewServer(pool, registry, outputRoot)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
