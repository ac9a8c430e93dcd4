package main

import (
	"context"
	"courier-dispatch-service/internal/adapters/cache"
	"courier-dispatch-service/internal/adapters/distance"
	"courier-dispatch-service/internal/adapters/repositories"
	"courier-dispatch-service/internal/api"
	"courier-dispatch-service/internal/config"
	"courier-dispatch-service/internal/metrics"
	"courier-dispatch-service/internal/platform/db"
	"courier-dispatch-service/internal/ports"
	"courier-dispatch-service/internal/services"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, matrix caches, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	metrics.RegisterDefault()

	sqliteDB, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	ctx := context.Background()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(ctx, sqliteDB, cfg.SeedPath); err != nil {
		log.Fatal(err)
	}

	matrixCache, closeCache, err := openMatrixCache(ctx, cfg, sqliteDB)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache.Close()

	var provider ports.DistanceMatrixProvider
	if cfg.ORSKey != "" {
		provider, err = distance.NewORSMatrixProvider(cfg.ORSKey, matrixCache, cfg.ORSRatePerMinute)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Matrix provider=ors rate_per_min=%d", cfg.ORSRatePerMinute)
	} else {
		provider = distance.NewHaversineMatrixProvider()
		log.Println("ORS_API_KEY not set, using haversine estimates")
	}

	dispatcher := services.NewDispatcher(provider, services.DispatcherConfig{
		Thresholds: cfg.Thresholds,
		Workers:    cfg.Workers,
	})

	repo := repositories.NewSqliteShopRepository(sqliteDB)
	router := api.NewRouter(repo, dispatcher)

	// Timeouts are tuned for cold-cache planning (external matrix API latency).
	log.Printf("Server listening addr=:%s", cfg.Port)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(ctx context.Context, db *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(ctx, db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); errors.Is(err, fs.ErrNotExist) {
		log.Printf("Seed file not found path=%s, starting with stored data", seedPath)
		return nil
	}

	if err := repositories.SeedFromJSON(ctx, db, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openMatrixCache prefers Redis, then a shared Postgres table, then the local
// SQLite database. The returned closer releases whatever the cache opened.
func openMatrixCache(ctx context.Context, cfg config.Config, sqliteDB *sql.DB) (ports.MatrixCache, io.Closer, error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("matrix cache: parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("matrix cache: ping redis: %w", err)
		}
		log.Printf("Matrix cache backend=redis ttl=%s", cfg.RedisTTL)
		return cache.NewRedisMatrixCache(client, cfg.RedisTTL), client, nil

	case cfg.DatabaseURL != "":
		pg, err := db.Open(ctx, cfg.DatabaseURL, db.Pool{})
		if err != nil {
			return nil, nil, fmt.Errorf("matrix cache: %w", err)
		}
		if err := db.InitMatrixCacheSchema(ctx, pg); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("matrix cache: %w", err)
		}
		log.Println("Matrix cache backend=postgres")
		return cache.NewSQLMatrixCache(pg), pg, nil

	default:
		log.Println("Matrix cache backend=sqlite")
		return cache.NewSqliteMatrixCache(sqliteDB), nopCloser{}, nil
	}
}
