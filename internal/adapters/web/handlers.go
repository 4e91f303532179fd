package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prnv007-rgb/flow-ai/internal/ai"
	"github.com/prnv007-rgb/flow-ai/internal/core"
)

// Handler holds the analytics service, the chat relay, and the chi router.
type Handler struct {
	analytics core.AnalyticsService
	chat      ai.ChatService
	log       zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(analytics core.AnalyticsService, chat ai.ChatService, log zerolog.Logger) http.Handler {
	h := &Handler{analytics: analytics, chat: chat, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS)

	r.Get("/health", h.health)

	// Dashboard read model.
	r.Get("/stats", h.stats)
	r.Get("/invoice-trends", h.invoiceTrends)
	r.Get("/vendors/top10", h.topVendors)
	r.Get("/category-spend", h.categorySpend)
	r.Get("/cash-outflow", h.cashOutflow)
	r.Get("/invoices", h.invoices)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Post("/chat-with-data", h.chatWithData)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v, writing an error response
// and returning false on failure. Returns HTTP 413 when the body exceeds
// the RequestBodyLimit; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
