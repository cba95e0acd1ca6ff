package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/settlement-ledger/internal/domain"
)

// Day builds a UTC calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func SeedInvoice(t *testing.T, db *sql.DB, number, amount string, category domain.Category) *domain.Invoice {
	t.Helper()

	now := time.Now().UTC()
	inv := &domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Amount:        decimal.RequireFromString(amount),
		Category:      category,
		InvoiceDate:   Day(2025, time.March, 1),
		DueDate:       Day(2025, time.March, 31),
		Status:        domain.InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO invoices (id, invoice_number, amount, category, invoice_date, due_date, notes, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.InvoiceNumber, inv.Amount, inv.Category,
		inv.InvoiceDate.Format("2006-01-02"), inv.DueDate.Format("2006-01-02"),
		inv.Notes, inv.Status, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed invoice %s: %v", number, err)
	}
	return inv
}

func SeedBalance(t *testing.T, db *sql.DB, availableFunds, planned string) {
	t.Helper()

	available := decimal.RequireFromString(availableFunds)
	plan := decimal.RequireFromString(planned)
	_, err := db.Exec(
		`INSERT INTO balances (id, available_funds, planned, balance_after)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET available_funds = EXCLUDED.available_funds,
		     planned = EXCLUDED.planned,
		     balance_after = EXCLUDED.balance_after`,
		domain.BalanceID, available, plan, available.Sub(plan),
	)
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func GetBalance(t *testing.T, db *sql.DB) domain.Balance {
	t.Helper()

	var b domain.Balance
	err := db.QueryRow(
		`SELECT available_funds, planned, balance_after, version, updated_at FROM balances WHERE id = $1`,
		domain.BalanceID,
	).Scan(&b.AvailableFunds, &b.Planned, &b.BalanceAfter, &b.Version, &b.UpdatedAt)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return b
}

func GetInvoiceStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.InvoiceStatus {
	t.Helper()

	var status domain.InvoiceStatus
	if err := db.QueryRow(`SELECT status FROM invoices WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("get invoice status %s: %v", id, err)
	}
	return status
}

func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	// table names come from test code only
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func CountPaidInvoices(t *testing.T, db *sql.DB, batchID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM paid_invoices WHERE batch_id = $1`, batchID).Scan(&count)
	if err != nil {
		t.Fatalf("count paid invoices for batch %s: %v", batchID, err)
	}
	return count
}

func CountCorrections(t *testing.T, db *sql.DB, kind domain.TargetKind, targetID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM payment_corrections WHERE target_kind = $1 AND target_id = $2`,
		kind, targetID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count corrections for %s %s: %v", kind, targetID, err)
	}
	return count
}
