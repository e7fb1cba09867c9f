package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"BillTrackerSaas/internal/appmanager"
	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/resource"
	"BillTrackerSaas/internal/store"
)

// InitDB opens the pgx pool from env config and applies the schema.
func InitDB(ctx context.Context, env config.Env) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, env.DSN())
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func servicesFile() string {
	if p := os.Getenv("SERVICES_FILE"); p != "" {
		return p
	}
	return "services.yaml"
}

func main() {
	// Load .env for local dev; deployments set the env directly
	_ = godotenv.Load(".env", "../.env")
	env := config.LoadEnv()
	ctx := context.Background()

	pool, err := InitDB(ctx, env)
	if err != nil {
		log.Fatal("failed to connect to DB: ", err)
	}
	defer pool.Close()
	appmanager.SetPgxPool(pool)

	rdb, err := resource.ConnectRedis(ctx, env.RedisAddr)
	if err != nil {
		log.Printf("redis unavailable at %s, imports run without a lock: %v", env.RedisAddr, err)
	}
	if rdb != nil {
		defer rdb.Close()
		appmanager.SetRedis(rdb)
	}

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence(servicesFile())
	if err != nil {
		log.Fatal("failed to load service sequence: ", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start: ", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Print("failed to stop: ", err)
	}
}
