package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prnv007-rgb/flow-ai/internal/adapters/web"
	"github.com/prnv007-rgb/flow-ai/internal/ai"
	"github.com/prnv007-rgb/flow-ai/internal/core"
)

// stubAnalytics returns canned results; err short-circuits every handler.
type stubAnalytics struct {
	stats      *core.Stats
	trends     []core.InvoiceTrend
	vendors    []core.VendorSpend
	categories []core.CategorySpend
	outflow    []core.CashOutflow
	invoices   []core.InvoiceSummary
	err        error
	lastSearch string
}

func (s *stubAnalytics) GetStats(ctx context.Context) (*core.Stats, error) {
	return s.stats, s.err
}
func (s *stubAnalytics) GetInvoiceTrends(ctx context.Context) ([]core.InvoiceTrend, error) {
	return s.trends, s.err
}
func (s *stubAnalytics) GetTopVendors(ctx context.Context) ([]core.VendorSpend, error) {
	return s.vendors, s.err
}
func (s *stubAnalytics) GetCategorySpend(ctx context.Context) ([]core.CategorySpend, error) {
	return s.categories, s.err
}
func (s *stubAnalytics) GetCashOutflow(ctx context.Context) ([]core.CashOutflow, error) {
	return s.outflow, s.err
}
func (s *stubAnalytics) ListInvoices(ctx context.Context, search string) ([]core.InvoiceSummary, error) {
	s.lastSearch = search
	return s.invoices, s.err
}

type stubChat struct {
	res   *ai.ChatResult
	err   error
	calls int
}

func (s *stubChat) ChatWithData(ctx context.Context, question string) (*ai.ChatResult, error) {
	s.calls++
	return s.res, s.err
}

func newTestHandler(analytics core.AnalyticsService, chat ai.ChatService) http.Handler {
	return web.NewHandler(analytics, chat, zerolog.Nop())
}

func TestHandler_Stats(t *testing.T) {
	analytics := &stubAnalytics{stats: &core.Stats{
		TotalSpend:          decimal.RequireFromString("300.50"),
		TotalInvoices:       2,
		DocumentsUploaded:   2,
		AverageInvoiceValue: decimal.RequireFromString("150.25"),
	}}
	h := newTestHandler(analytics, &stubChat{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status: want 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	for _, key := range []string{"totalSpend", "totalInvoices", "documentsUploaded", "averageInvoiceValue"} {
		if _, ok := body[key]; !ok {
			t.Errorf("Response missing %q: %s", key, rec.Body.String())
		}
	}
}

func TestHandler_StoreFailureIsIsolated500(t *testing.T) {
	h := newTestHandler(&stubAnalytics{err: errors.New("connection refused")}, &stubChat{})

	for _, path := range []string{"/stats", "/invoice-trends", "/vendors/top10", "/category-spend", "/cash-outflow", "/invoices"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s: want 500, got %d", path, rec.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: invalid JSON error body: %v", path, err)
		}
		if body["error"] == "" {
			t.Errorf("%s: missing error field", path)
		}
		if !strings.Contains(body["details"].(string), "connection refused") {
			t.Errorf("%s: details should carry the cause, got %v", path, body["details"])
		}
	}
}

func TestHandler_EmptySequencesSerializeAsArrays(t *testing.T) {
	h := newTestHandler(&stubAnalytics{}, &stubChat{})

	for _, path := range []string{"/invoice-trends", "/vendors/top10", "/category-spend", "/cash-outflow", "/invoices"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: want 200, got %d", path, rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("%s: want [], got %s", path, got)
		}
	}
}

func TestHandler_InvoiceSearchPassthrough(t *testing.T) {
	analytics := &stubAnalytics{}
	h := newTestHandler(analytics, &stubChat{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices?search=acme", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status: want 200, got %d", rec.Code)
	}
	if analytics.lastSearch != "acme" {
		t.Errorf("Search: want acme, got %q", analytics.lastSearch)
	}
}

func TestHandler_ChatEmptyQuestionShortCircuits(t *testing.T) {
	chat := &stubChat{}
	h := newTestHandler(&stubAnalytics{}, chat)

	for _, body := range []string{`{"question":""}`, `{}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/chat-with-data", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %s: want 400, got %d", body, rec.Code)
		}
	}
	if chat.calls != 0 {
		t.Errorf("No outbound call may happen for an empty question, got %d", chat.calls)
	}
}

func TestHandler_ChatRelaysUpstreamResponse(t *testing.T) {
	chat := &stubChat{res: &ai.ChatResult{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"sql":"SELECT 1","rows":[]}`),
	}}
	h := newTestHandler(&stubAnalytics{}, chat)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-with-data", strings.NewReader(`{"question":"top vendor?"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Status: want 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"sql":"SELECT 1","rows":[]}` {
		t.Errorf("Upstream body not relayed verbatim: %s", rec.Body.String())
	}
}

func TestHandler_ChatRelaysUpstreamErrorStatus(t *testing.T) {
	chat := &stubChat{res: &ai.ChatResult{
		StatusCode: http.StatusUnprocessableEntity,
		Body:       []byte("cannot generate SQL"),
	}}
	h := newTestHandler(&stubAnalytics{}, chat)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-with-data", strings.NewReader(`{"question":"gibberish"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status: want 422, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON error body: %v", err)
	}
	if body["details"] != "cannot generate SQL" {
		t.Errorf("Details: want upstream body, got %v", body["details"])
	}
}

func TestHandler_ChatUpstreamUnreachable(t *testing.T) {
	chat := &stubChat{err: errors.New("dial tcp: connection refused")}
	h := newTestHandler(&stubAnalytics{}, chat)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat-with-data", strings.NewReader(`{"question":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status: want 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to connect") {
		t.Errorf("Expected connectivity failure message, got %s", rec.Body.String())
	}
}

func TestHandler_HealthAndCORS(t *testing.T) {
	h := newTestHandler(&stubAnalytics{}, &stubChat{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status: want 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin: want *, got %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Errorf("Expected an X-Request-ID header")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat-with-data", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Preflight: want 204, got %d", rec.Code)
	}
}
