package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "github.com/prnv007-rgb/flow-ai/internal/adapters/web"
	"github.com/prnv007-rgb/flow-ai/internal/ai"
	"github.com/prnv007-rgb/flow-ai/internal/core"
	"github.com/prnv007-rgb/flow-ai/internal/db"
	"github.com/prnv007-rgb/flow-ai/internal/logger"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	analytics := core.NewAnalyticsService(pool)
	chat := ai.NewClient(os.Getenv("VANNA_BASE_URL"))

	handler := webAdapter.NewHandler(analytics, chat, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
}
