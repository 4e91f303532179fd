package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Importer loads extraction documents into the record store. Re-running it
// over the same input converges on the same end state: vendors upsert by
// name, invoices by id, and line items are replaced wholesale inside the
// same transaction as their invoice.
type Importer struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// New constructs an Importer backed by the given pool.
func New(pool *pgxpool.Pool, log zerolog.Logger) *Importer {
	return &Importer{pool: pool, log: log}
}

// Result holds the final counts of one import run.
type Result struct {
	Upserted int
	Skipped  int
}

// Run imports every document in the JSON array read from r. A document
// that fails validation or its own write is skipped, logged, and counted;
// only failure to read or decode the outer array aborts the run.
func (im *Importer) Run(ctx context.Context, r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read seed input: %w", err)
	}

	// Documents decode individually so one malformed record cannot take
	// down the batch.
	var docs []json.RawMessage
	if err := json.Unmarshal(data, &docs); err != nil {
		return Result{}, fmt.Errorf("failed to decode seed input: %w", err)
	}

	var res Result
	for _, raw := range docs {
		rec, err := parseDocument(raw)
		if err != nil {
			im.log.Warn().Err(err).Msg("skipping record")
			res.Skipped++
			continue
		}

		if err := im.upsertInvoice(ctx, rec); err != nil {
			im.log.Error().Err(err).Str("invoice_id", rec.ID).Msg("failed to upsert invoice")
			res.Skipped++
			continue
		}

		im.log.Info().Str("invoice_number", rec.InvoiceNumber).Msg("upserted invoice")
		res.Upserted++
	}

	im.log.Info().Int("upserted", res.Upserted).Int("skipped", res.Skipped).Msg("seeding finished")
	return res, nil
}

// upsertInvoice writes one validated record inside a single transaction:
// vendor keyed by name, invoice keyed by id, line items deleted and
// recreated, payment upserted with the invoice total as its amount.
func (im *Importer) upsertInvoice(ctx context.Context, rec *InvoiceRecord) error {
	tx, err := im.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// DO UPDATE rather than DO NOTHING so RETURNING always yields the id.
	var vendorID int
	err = tx.QueryRow(ctx, `
		INSERT INTO vendors (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		rec.VendorName,
	).Scan(&vendorID)
	if err != nil {
		return fmt.Errorf("upsert vendor %q: %w", rec.VendorName, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, date, amount, status, customer_name, vendor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		  SET invoice_number = EXCLUDED.invoice_number,
		      date           = EXCLUDED.date,
		      amount         = EXCLUDED.amount,
		      status         = EXCLUDED.status,
		      customer_name  = EXCLUDED.customer_name,
		      vendor_id      = EXCLUDED.vendor_id`,
		rec.ID, rec.InvoiceNumber, rec.Date, rec.Amount, rec.Status, rec.CustomerName, vendorID,
	)
	if err != nil {
		return fmt.Errorf("upsert invoice %s: %w", rec.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM line_items WHERE invoice_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("clear line items for %s: %w", rec.ID, err)
	}

	batch := &pgx.Batch{}
	for _, line := range rec.Lines {
		batch.Queue(`
			INSERT INTO line_items (invoice_id, description, quantity, unit_price, total_price, category)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID, line.Description, line.Quantity, line.UnitPrice, line.TotalPrice, line.Category,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert line items for %s: %w", rec.ID, err)
	}

	// The export carries no independent payment amount; it mirrors the
	// invoice total.
	_, err = tx.Exec(ctx, `
		INSERT INTO payments (invoice_id, date, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (invoice_id) DO UPDATE
		  SET date   = EXCLUDED.date,
		      amount = EXCLUDED.amount`,
		rec.ID, rec.DueDate, rec.Amount,
	)
	if err != nil {
		return fmt.Errorf("upsert payment for %s: %w", rec.ID, err)
	}

	return tx.Commit(ctx)
}
