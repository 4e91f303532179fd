package web

import (
	"net/http"

	"github.com/prnv007-rgb/flow-ai/internal/core"
)

// stats handles GET /stats.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.analytics.GetStats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("stats query failed")
		writeError(w, r, "Failed to fetch stats", err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

// invoiceTrends handles GET /invoice-trends.
func (h *Handler) invoiceTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.analytics.GetInvoiceTrends(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("invoice trends query failed")
		writeError(w, r, "Failed to fetch trends", err.Error(), http.StatusInternalServerError)
		return
	}
	if trends == nil {
		trends = []core.InvoiceTrend{}
	}
	writeJSON(w, trends)
}

// topVendors handles GET /vendors/top10.
func (h *Handler) topVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.analytics.GetTopVendors(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("top vendors query failed")
		writeError(w, r, "Failed to fetch top vendors", err.Error(), http.StatusInternalServerError)
		return
	}
	if vendors == nil {
		vendors = []core.VendorSpend{}
	}
	writeJSON(w, vendors)
}

// categorySpend handles GET /category-spend.
func (h *Handler) categorySpend(w http.ResponseWriter, r *http.Request) {
	categories, err := h.analytics.GetCategorySpend(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("category spend query failed")
		writeError(w, r, "Failed to fetch category spend", err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []core.CategorySpend{}
	}
	writeJSON(w, categories)
}

// cashOutflow handles GET /cash-outflow.
func (h *Handler) cashOutflow(w http.ResponseWriter, r *http.Request) {
	outflow, err := h.analytics.GetCashOutflow(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("cash outflow query failed")
		writeError(w, r, "Failed to fetch cash outflow", err.Error(), http.StatusInternalServerError)
		return
	}
	if outflow == nil {
		outflow = []core.CashOutflow{}
	}
	writeJSON(w, outflow)
}

// invoices handles GET /invoices with an optional ?search= filter.
func (h *Handler) invoices(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	list, err := h.analytics.ListInvoices(r.Context(), search)
	if err != nil {
		h.log.Error().Err(err).Msg("invoice list query failed")
		writeError(w, r, "Failed to fetch invoices", err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []core.InvoiceSummary{}
	}
	writeJSON(w, list)
}
