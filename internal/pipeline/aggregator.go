package pipeline

import (
	"sort"
	"time"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

// WindowAggregates holds per-window slices of one user's transaction
// history. Pending transactions are included in every aggregate by
// policy; PendingIncluded is tracked for downstream logic that wants to
// exclude them (none currently does).
type WindowAggregates struct {
	Window          domain.Window
	AsOf            time.Time
	Transactions    []*domain.Transaction
	ByMerchant      map[string][]*domain.Transaction
	CategoryTotals  map[string]decimal.Decimal
	TotalSpend      decimal.Decimal
	PendingIncluded int
}

// Aggregate slices transactions into the look-back window ending at asOf
// and groups them by merchant and category. Pure function: the input
// slice is never modified, and an empty window yields empty aggregates
// rather than an error.
func Aggregate(txs []*domain.Transaction, asOf time.Time, window domain.Window) *WindowAggregates {
	start := asOf.AddDate(0, 0, -int(window))

	agg := &WindowAggregates{
		Window:         window,
		AsOf:           asOf,
		ByMerchant:     make(map[string][]*domain.Transaction),
		CategoryTotals: make(map[string]decimal.Decimal),
		TotalSpend:     decimal.Zero,
	}

	for _, tx := range txs {
		if tx.PostedDate.Before(start) || tx.PostedDate.After(asOf) {
			continue
		}
		agg.Transactions = append(agg.Transactions, tx)
	}

	// The feed may arrive unordered; sort by date then ID so every
	// downstream computation is deterministic.
	sort.Slice(agg.Transactions, func(i, j int) bool {
		a, b := agg.Transactions[i], agg.Transactions[j]
		if !a.PostedDate.Equal(b.PostedDate) {
			return a.PostedDate.Before(b.PostedDate)
		}
		return a.ID < b.ID
	})

	for _, tx := range agg.Transactions {
		if tx.IsPending {
			agg.PendingIncluded++
		}
		agg.ByMerchant[tx.Merchant] = append(agg.ByMerchant[tx.Merchant], tx)

		spend := tx.Spend()
		if spend.IsPositive() {
			agg.TotalSpend = agg.TotalSpend.Add(spend)
			agg.CategoryTotals[tx.Category] = agg.CategoryTotals[tx.Category].Add(spend)
		}
	}

	return agg
}

// Merchants returns merchant names in sorted order.
func (a *WindowAggregates) Merchants() []string {
	names := make([]string, 0, len(a.ByMerchant))
	for name := range a.ByMerchant {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
