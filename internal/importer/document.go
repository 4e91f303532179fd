package importer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Field is one extraction leaf. The export wraps every value with
// provenance metadata; only the value itself survives into the store.
type Field[T any] struct {
	Value T `json:"value"`
}

// Document is one record of the extraction export. Nested groups are
// pointers so that an absent branch is distinguishable from a zero value.
type Document struct {
	ID            string `json:"_id"`
	Status        string `json:"status"`
	ExtractedData struct {
		LLMData *llmData `json:"llmData"`
	} `json:"extractedData"`
}

type llmData struct {
	Invoice   *Field[invoiceGroup]   `json:"invoice"`
	Vendor    *Field[vendorGroup]    `json:"vendor"`
	Customer  *Field[customerGroup]  `json:"customer"`
	Payment   *Field[paymentGroup]   `json:"payment"`
	Summary   *Field[summaryGroup]   `json:"summary"`
	LineItems *Field[lineItemsGroup] `json:"lineItems"`
}

type invoiceGroup struct {
	InvoiceID   *Field[string] `json:"invoiceId"`
	InvoiceDate *Field[string] `json:"invoiceDate"`
}

type vendorGroup struct {
	VendorName *Field[string] `json:"vendorName"`
}

type customerGroup struct {
	CustomerName *Field[*string] `json:"customerName"`
}

type paymentGroup struct {
	DueDate *Field[*string] `json:"dueDate"`
}

type summaryGroup struct {
	InvoiceTotal *Field[*decimal.Decimal] `json:"invoiceTotal"`
}

type lineItemsGroup struct {
	Items *Field[[]documentLine] `json:"items"`
}

type documentLine struct {
	Description *Field[string]          `json:"description"`
	Quantity    *Field[decimal.Decimal] `json:"quantity"`
	UnitPrice   *Field[decimal.Decimal] `json:"unitPrice"`
	TotalPrice  *Field[decimal.Decimal] `json:"totalPrice"`
	Category    *Field[*string]         `json:"category"`
}

// InvoiceRecord is a fully validated invoice ready to be written. Nothing
// is written from a document until parsing has produced one of these.
type InvoiceRecord struct {
	ID            string
	InvoiceNumber string
	Date          time.Time
	Amount        decimal.Decimal
	Status        string
	VendorName    string
	CustomerName  *string
	DueDate       *time.Time
	Lines         []LineRecord
}

// LineRecord is one validated line item.
type LineRecord struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
	Category    *string
}

// dateLayouts are the accepted invoice/due date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseSafeDate degrades an absent or unparseable date string to nil
// instead of failing; used for the optional due date.
func parseSafeDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

// parseDocument decodes and validates one raw export record. It returns a
// fully populated InvoiceRecord or a named validation failure; no partial
// record is ever produced. Validation is all-or-nothing per document so a
// rejected document leaves the store untouched.
func parseDocument(raw json.RawMessage) (*InvoiceRecord, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}

	llm := doc.ExtractedData.LLMData
	if llm == nil ||
		llm.Invoice == nil || llm.Invoice.Value.InvoiceID == nil || llm.Invoice.Value.InvoiceID.Value == "" ||
		llm.Summary == nil || llm.Summary.Value.InvoiceTotal == nil || llm.Summary.Value.InvoiceTotal.Value == nil ||
		llm.Vendor == nil || llm.Vendor.Value.VendorName == nil || llm.Vendor.Value.VendorName.Value == "" {
		return nil, fmt.Errorf("missing core invoice, summary, or vendor data")
	}

	// A null items value decodes to a nil slice; an empty array stays
	// non-nil and is a valid invoice with no lines.
	if llm.LineItems == nil || llm.LineItems.Value.Items == nil || llm.LineItems.Value.Items.Value == nil {
		return nil, fmt.Errorf("line items are missing or not an array")
	}

	if llm.Invoice.Value.InvoiceDate == nil {
		return nil, fmt.Errorf("missing invoice date")
	}
	invoiceDate, err := parseDate(llm.Invoice.Value.InvoiceDate.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice date: %w", err)
	}

	rec := &InvoiceRecord{
		ID:            doc.ID,
		InvoiceNumber: llm.Invoice.Value.InvoiceID.Value,
		Date:          invoiceDate,
		Amount:        *llm.Summary.Value.InvoiceTotal.Value,
		Status:        doc.Status,
		VendorName:    llm.Vendor.Value.VendorName.Value,
	}

	if llm.Customer != nil && llm.Customer.Value.CustomerName != nil {
		rec.CustomerName = llm.Customer.Value.CustomerName.Value
	}
	if llm.Payment != nil && llm.Payment.Value.DueDate != nil {
		rec.DueDate = parseSafeDate(llm.Payment.Value.DueDate.Value)
	}

	for i, item := range llm.LineItems.Value.Items.Value {
		if item.Description == nil || item.Quantity == nil || item.UnitPrice == nil || item.TotalPrice == nil {
			return nil, fmt.Errorf("line item %d missing required fields", i)
		}
		line := LineRecord{
			Description: item.Description.Value,
			Quantity:    item.Quantity.Value,
			UnitPrice:   item.UnitPrice.Value,
			TotalPrice:  item.TotalPrice.Value,
		}
		if item.Category != nil {
			line.Category = item.Category.Value
		}
		rec.Lines = append(rec.Lines, line)
	}

	return rec, nil
}
