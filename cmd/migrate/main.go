// migrate applies the SQL files under migrations/ in order, tracking each
// one in schema_migrations with a checksum. A Postgres advisory lock keeps
// two migrators from racing; a checksum mismatch on a previously applied
// file is fatal.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/prnv007-rgb/flow-ai/internal/logger"
)

const migrationLockKey = 9137604

func main() {
	_ = godotenv.Load()
	log := logger.New()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Fatal().Msg("DATABASE_URL environment variable not set")
	}

	ctx := context.Background()
	pool := connect(ctx, log, url)
	defer pool.Close()

	conn := acquireLock(ctx, log, pool)
	defer conn.Release()

	ensureMigrationsTable(ctx, log, pool)

	for _, filename := range discoverMigrations(log) {
		apply(ctx, log, pool, filename)
	}

	log.Info().Msg("all migrations processed")
}

func connect(ctx context.Context, log zerolog.Logger, url string) *pgxpool.Pool {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pool")
	}
	if err := pool.Ping(connCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	return pool
}

func acquireLock(ctx context.Context, log zerolog.Logger, pool *pgxpool.Pool) *pgxpool.Conn {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to acquire connection for lock")
	}

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockKey).Scan(&locked); err != nil {
		log.Fatal().Err(err).Msg("failed to query advisory lock")
	}
	if !locked {
		log.Fatal().Msg("another migrator is currently running")
	}
	return conn
}

func ensureMigrationsTable(ctx context.Context, log zerolog.Logger, pool *pgxpool.Pool) {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create schema_migrations table")
	}
}

func discoverMigrations(log zerolog.Logger) []string {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations directory")
	}

	var filenames []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version := extractVersion(log, entry.Name())
		if seen[version] {
			log.Fatal().Str("version", version).Msg("duplicate migration version")
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames
}

func extractVersion(log zerolog.Logger, filename string) string {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		log.Fatal().Str("filename", filename).Msg("invalid migration filename, expected NNN_description.sql")
	}
	return parts[0]
}

func checksumFile(log zerolog.Logger, filename string) string {
	data, err := os.ReadFile(filepath.Join("migrations", filename))
	if err != nil {
		log.Fatal().Err(err).Str("filename", filename).Msg("failed to read migration for checksum")
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func apply(ctx context.Context, log zerolog.Logger, pool *pgxpool.Pool, filename string) {
	version := extractVersion(log, filename)
	checksum := checksumFile(log, filename)

	var existing string
	err := pool.QueryRow(ctx,
		"SELECT checksum FROM schema_migrations WHERE version = $1", version,
	).Scan(&existing)
	switch {
	case err == nil:
		if existing == checksum {
			log.Info().Str("migration", filename).Msg("already applied, skipping")
			return
		}
		log.Fatal().Str("migration", filename).Msg("checksum mismatch for applied migration")
	case errors.Is(err, pgx.ErrNoRows):
		// not yet applied
	default:
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to query schema_migrations")
	}

	sqlBytes, err := os.ReadFile(filepath.Join("migrations", filename))
	if err != nil {
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to read migration file")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to execute migration")
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		version, filename, checksum,
	); err != nil {
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to record migration")
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Str("migration", filename).Msg("failed to commit migration")
	}

	log.Info().Str("migration", filename).Msg("applied")
}
