package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Interface ─────────────────────────────────────────────────────────────────

// AnalyticsService provides the read-only dashboard queries. Every handler
// is stateless and side-effect-free: each is a pure function of the record
// store's current contents, so concurrent calls need no coordination and a
// failure in one never affects another.
type AnalyticsService interface {
	// GetStats returns total spend, invoice count, and average invoice
	// value over all invoices. Sums and averages default to zero when no
	// invoices exist.
	GetStats(ctx context.Context) (*Stats, error)

	// GetInvoiceTrends returns per-month invoice value and volume,
	// ascending by month. Months with no invoices are omitted.
	GetInvoiceTrends(ctx context.Context) ([]InvoiceTrend, error)

	// GetTopVendors returns up to ten vendors by total invoiced amount,
	// descending. Ties break by vendor insertion order.
	GetTopVendors(ctx context.Context) ([]VendorSpend, error)

	// GetCategorySpend returns summed line-item spend per category,
	// descending by value. A NULL category groups under "Uncategorized".
	GetCategorySpend(ctx context.Context) ([]CategorySpend, error)

	// GetCashOutflow returns summed payment amounts per calendar day,
	// ascending. Payments with no known date are excluded.
	GetCashOutflow(ctx context.Context) ([]CashOutflow, error)

	// ListInvoices returns invoices ordered by date descending. A
	// non-empty search restricts the list to invoices whose number or
	// vendor name contains it as a case-insensitive substring.
	ListInvoices(ctx context.Context, search string) ([]InvoiceSummary, error)
}

// ── Implementation ────────────────────────────────────────────────────────────

type analyticsService struct {
	pool *pgxpool.Pool
}

// NewAnalyticsService constructs an AnalyticsService backed by the given pool.
func NewAnalyticsService(pool *pgxpool.Pool) AnalyticsService {
	return &analyticsService{pool: pool}
}

func (s *analyticsService) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0),
		       COUNT(*),
		       COALESCE(AVG(amount), 0)
		FROM invoices`,
	).Scan(&st.TotalSpend, &st.TotalInvoices, &st.AverageInvoiceValue)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	st.DocumentsUploaded = st.TotalInvoices
	return st, nil
}

func (s *analyticsService) GetInvoiceTrends(ctx context.Context) ([]InvoiceTrend, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM') AS month,
		       SUM(amount),
		       COUNT(*)
		FROM invoices
		GROUP BY month
		ORDER BY month`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice trends: %w", err)
	}
	defer rows.Close()

	var trends []InvoiceTrend
	for rows.Next() {
		var t InvoiceTrend
		if err := rows.Scan(&t.Month, &t.TotalValue, &t.TotalVolume); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend row iteration error: %w", err)
	}
	return trends, nil
}

func (s *analyticsService) GetTopVendors(ctx context.Context) ([]VendorSpend, error) {
	// Vendor id ascending is insertion order, which is the tie-break.
	rows, err := s.pool.Query(ctx, `
		SELECT v.name, SUM(i.amount) AS spend
		FROM vendors v
		JOIN invoices i ON i.vendor_id = v.id
		GROUP BY v.id, v.name
		ORDER BY spend DESC, v.id ASC
		LIMIT 10`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top vendors: %w", err)
	}
	defer rows.Close()

	var vendors []VendorSpend
	for rows.Next() {
		var v VendorSpend
		if err := rows.Scan(&v.Name, &v.Spend); err != nil {
			return nil, fmt.Errorf("failed to scan vendor spend row: %w", err)
		}
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vendor spend row iteration error: %w", err)
	}
	return vendors, nil
}

func (s *analyticsService) GetCategorySpend(ctx context.Context) ([]CategorySpend, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(category, 'Uncategorized') AS name,
		       SUM(total_price) AS value
		FROM line_items
		GROUP BY name
		ORDER BY value DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spend: %w", err)
	}
	defer rows.Close()

	var categories []CategorySpend
	for rows.Next() {
		var c CategorySpend
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan category spend row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("category spend row iteration error: %w", err)
	}
	return categories, nil
}

func (s *analyticsService) GetCashOutflow(ctx context.Context) ([]CashOutflow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       SUM(amount)
		FROM payments
		WHERE date IS NOT NULL
		GROUP BY day
		ORDER BY day`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash outflow: %w", err)
	}
	defer rows.Close()

	var outflow []CashOutflow
	for rows.Next() {
		var o CashOutflow
		if err := rows.Scan(&o.Day, &o.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan cash outflow row: %w", err)
		}
		outflow = append(outflow, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cash outflow row iteration error: %w", err)
	}
	return outflow, nil
}

func (s *analyticsService) ListInvoices(ctx context.Context, search string) ([]InvoiceSummary, error) {
	q := `
		SELECT i.id, v.name, i.date, i.invoice_number, i.amount, i.status
		FROM invoices i
		JOIN vendors v ON v.id = i.vendor_id`

	var args []any
	if search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		q += `
		WHERE i.invoice_number ILIKE $1 OR v.name ILIKE $1`
	}
	q += `
		ORDER BY i.date DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []InvoiceSummary
	for rows.Next() {
		var inv InvoiceSummary
		if err := rows.Scan(
			&inv.ID, &inv.Vendor, &inv.Date,
			&inv.InvoiceNumber, &inv.Amount, &inv.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice row iteration error: %w", err)
	}
	return invoices, nil
}

// escapeLike neutralizes LIKE metacharacters so a user search term is
// matched literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
