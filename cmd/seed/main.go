// seed is a one-shot batch loader for an extraction export. It upserts one
// vendor, one invoice, its line items, and its payment per valid document,
// skipping invalid documents, and is safe to re-run over the same file.
//
// Usage: go run ./cmd/seed [path/to/export.json]
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/prnv007-rgb/flow-ai/internal/db"
	"github.com/prnv007-rgb/flow-ai/internal/importer"
	"github.com/prnv007-rgb/flow-ai/internal/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	path := os.Getenv("SEED_FILE")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		path = "data/Analytics_Test_Data.json"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open seed file")
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	res, err := importer.New(pool, log).Run(ctx, f)
	if err != nil {
		log.Fatal().Err(err).Msg("seed run failed")
	}

	log.Info().Int("upserted", res.Upserted).Int("skipped", res.Skipped).Msg("done")
}
