// Command mastersetup seeds the reference collections with their default
// values. Values already present, compared case-insensitively, are kept.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"BillTrackerSaas/internal/config"
	"BillTrackerSaas/internal/ingest/reference"
	"BillTrackerSaas/internal/logger"
	"BillTrackerSaas/internal/store"
)

func parseKinds(raw string) []store.MasterKind {
	var kinds []store.MasterKind
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, store.MasterKind(k))
		}
	}
	return kinds
}

func main() {
	kindsFlag := flag.String("kinds", "compliance,pan_status", "comma-separated master kinds to seed (region, currency, nature_of_work, pan_status, compliance)")
	flag.Parse()

	_ = godotenv.Load(".env", "../.env")
	env := config.LoadEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, env.DSN())
	if err != nil {
		log.Fatal("failed to connect to DB: ", err)
	}
	defer pool.Close()
	if err := store.EnsureSchema(ctx, pool); err != nil {
		log.Fatal(err)
	}

	seeder := &reference.Seeder{Masters: store.NewPgMasterStore(pool), Log: logger.L()}
	reports, err := seeder.SeedDefaults(ctx, parseKinds(*kindsFlag)...)
	if err != nil {
		log.Fatal("seeding failed: ", err)
	}
	for _, r := range reports {
		log.Printf("%s: inserted %d, already present %d", r.Kind, len(r.Inserted), len(r.Existing))
	}
}
