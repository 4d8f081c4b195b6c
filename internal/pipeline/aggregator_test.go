package pipeline

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendsense/internal/domain"
)

var testAsOf = time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTx(id string, daysAgo int, amount float64, merchant, category string) *domain.Transaction {
	return &domain.Transaction{
		ID:         id,
		AccountID:  "acc-1",
		UserID:     "u1",
		PostedDate: testAsOf.AddDate(0, 0, -daysAgo),
		Amount:     decimal.NewFromFloat(amount),
		Merchant:   merchant,
		Category:   category,
	}
}

func TestAggregate_WindowBoundaries(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("t1", 5, -50, "Grocer", "groceries"),
		testTx("t2", 29, -30, "Grocer", "groceries"),
		testTx("t3", 31, -20, "Grocer", "groceries"),
		testTx("t4", 95, -10, "Grocer", "groceries"),
	}

	agg := Aggregate(txs, testAsOf, domain.Window30)

	if len(agg.Transactions) != 2 {
		t.Fatalf("expected 2 transactions in 30d window, got %d", len(agg.Transactions))
	}
	want := decimal.NewFromFloat(80)
	if !agg.TotalSpend.Equal(want) {
		t.Errorf("expected total spend 80, got %s", agg.TotalSpend)
	}
}

func TestAggregate_SortsUnorderedFeed(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("t3", 2, -10, "A", "misc"),
		testTx("t1", 40, -10, "A", "misc"),
		testTx("t2", 20, -10, "A", "misc"),
	}

	agg := Aggregate(txs, testAsOf, domain.Window90)

	if agg.Transactions[0].ID != "t1" || agg.Transactions[1].ID != "t2" || agg.Transactions[2].ID != "t3" {
		t.Errorf("expected transactions sorted oldest first, got %s %s %s",
			agg.Transactions[0].ID, agg.Transactions[1].ID, agg.Transactions[2].ID)
	}
}

func TestAggregate_CreditsExcludedFromSpend(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("t1", 3, -100, "Store", "shopping"),
		testTx("t2", 4, 2000, "Acme Payroll", "income"),
	}

	agg := Aggregate(txs, testAsOf, domain.Window30)

	want := decimal.NewFromFloat(100)
	if !agg.TotalSpend.Equal(want) {
		t.Errorf("expected total spend 100, got %s", agg.TotalSpend)
	}
	if !agg.CategoryTotals["shopping"].Equal(want) {
		t.Errorf("expected shopping total 100, got %s", agg.CategoryTotals["shopping"])
	}
	if _, exists := agg.CategoryTotals["income"]; exists {
		t.Error("credits must not contribute to category totals")
	}
}

func TestAggregate_EmptyWindow(t *testing.T) {
	agg := Aggregate(nil, testAsOf, domain.Window30)

	if len(agg.Transactions) != 0 {
		t.Errorf("expected no transactions, got %d", len(agg.Transactions))
	}
	if !agg.TotalSpend.IsZero() {
		t.Errorf("expected zero spend, got %s", agg.TotalSpend)
	}
}

func TestAggregate_CountsPending(t *testing.T) {
	pending := testTx("t1", 1, -25, "Store", "shopping")
	pending.IsPending = true
	txs := []*domain.Transaction{
		pending,
		testTx("t2", 2, -25, "Store", "shopping"),
	}

	agg := Aggregate(txs, testAsOf, domain.Window30)

	if agg.PendingIncluded != 1 {
		t.Errorf("expected 1 pending transaction counted, got %d", agg.PendingIncluded)
	}
	if len(agg.Transactions) != 2 {
		t.Errorf("pending transactions must be included, got %d of 2", len(agg.Transactions))
	}
}
