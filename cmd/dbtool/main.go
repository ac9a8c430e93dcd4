package main

import (
	"context"
	"courier-dispatch-service/internal/config"
	"courier-dispatch-service/internal/platform/db"
	"flag"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool prepares the shared Postgres matrix cache used when several
// dispatcher instances run side by side.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	pruneDays := flag.Int("prune-days", 0, "delete cached legs older than this many days (0 keeps everything)")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()

	pg, err := db.Open(ctx, databaseURL, db.Pool{MaxOpen: 2})
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	log.Println("Initializing matrix cache schema...")
	if err := db.InitMatrixCacheSchema(ctx, pg); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	days := *pruneDays
	if days == 0 {
		days, err = config.GetInt("MATRIX_CACHE_PRUNE_DAYS", 0)
		if err != nil {
			log.Fatal(err)
		}
	}
	if days > 0 {
		n, err := db.PruneMatrixCache(ctx, pg, days)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Printf("Pruned matrix cache rows=%d older_than_days=%d", n, days)
	}
}
