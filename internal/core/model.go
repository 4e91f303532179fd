package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vendor is a supplier row. Name is the unique upsert key; re-importing an
// invoice for a known vendor never creates a second row.
type Vendor struct {
	ID   int
	Name string
}

// Invoice is one stored invoice. ID is the caller-supplied document
// identifier from the extraction pipeline, not a generated key, so that a
// re-import lands on the same row.
type Invoice struct {
	ID            string
	InvoiceNumber string
	Date          time.Time
	Amount        decimal.Decimal
	Status        string
	CustomerName  *string
	VendorID      int
}

// LineItem belongs to exactly one invoice and is replaced wholesale when
// its parent is re-imported. Category is free text from extraction; NULL
// is mapped to the "Uncategorized" bucket at read time only.
type LineItem struct {
	ID          int64
	InvoiceID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Category    *string
}

// Payment is the one-to-one payment record for an invoice. A nil Date
// means no payment date is known; such rows are excluded from cash-outflow
// aggregation rather than treated as day zero.
type Payment struct {
	InvoiceID string
	Date      *time.Time
	Amount    decimal.Decimal
}

// ── Read-model summary shapes ─────────────────────────────────────────────────

// Stats is the headline dashboard card data. DocumentsUploaded equals
// TotalInvoices: no separate upload-tracking entity exists.
type Stats struct {
	TotalSpend          decimal.Decimal `json:"totalSpend"`
	TotalInvoices       int             `json:"totalInvoices"`
	DocumentsUploaded   int             `json:"documentsUploaded"`
	AverageInvoiceValue decimal.Decimal `json:"averageInvoiceValue"`
}

// InvoiceTrend is one calendar month of invoice activity (UTC, "YYYY-MM").
type InvoiceTrend struct {
	Month       string          `json:"month"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalVolume int             `json:"totalVolume"`
}

// VendorSpend is one vendor's total invoiced amount.
type VendorSpend struct {
	Name  string          `json:"name"`
	Spend decimal.Decimal `json:"spend"`
}

// CategorySpend is the summed line-item spend for one category bucket.
type CategorySpend struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// CashOutflow is the summed payment amount for one calendar day
// (UTC, "YYYY-MM-DD").
type CashOutflow struct {
	Day         string          `json:"day"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// InvoiceSummary is one row of the searchable invoice list.
type InvoiceSummary struct {
	ID            string          `json:"id"`
	Vendor        string          `json:"vendor"`
	Date          time.Time       `json:"date"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}
