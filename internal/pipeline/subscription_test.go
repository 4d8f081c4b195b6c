package pipeline

import (
	"math"
	"testing"

	"spendsense/internal/domain"
)

func TestExtractSubscriptionSignals_Share(t *testing.T) {
	// Three monthly subscriptions plus one-off spend: 90-day total 1353,
	// recurring monthly total 203.
	var txs []*domain.Transaction
	for i, day := range []int{4, 34, 64} {
		txs = append(txs,
			testTx("n"+string(rune('a'+i)), day, -80, "StreamCo", "subscriptions"),
			testTx("g"+string(rune('a'+i)), day, -78, "CloudBox", "subscriptions"),
			testTx("m"+string(rune('a'+i)), day, -45, "FitClub", "subscriptions"),
		)
	}
	txs = append(txs,
		testTx("x1", 10, -250, "Grocer", "groceries"),
		testTx("x2", 50, -250, "Airline", "travel"),
		testTx("x3", 80, -244, "Dentist", "health"),
	)
	agg90 := Aggregate(txs, testAsOf, domain.Window90)
	recurring := DetectRecurring(agg90)

	signals := extractSubscriptionSignals(agg90, recurring, testLogger())

	count, _ := signals.Number("recurring_merchant_count")
	if count != 3 {
		t.Fatalf("expected 3 recurring merchants, got %f", count)
	}
	total, _ := signals.Number("monthly_recurring_total")
	if math.Abs(total-203) > 1e-9 {
		t.Errorf("expected monthly recurring total 203, got %f", total)
	}
	share, ok := signals.Number("subscription_share")
	if !ok {
		t.Fatal("expected subscription_share to be defined")
	}
	if math.Abs(share-0.15) > 0.001 {
		t.Errorf("expected share near 0.15, got %f", share)
	}
}

func TestExtractSubscriptionSignals_ZeroSpendFlagged(t *testing.T) {
	agg90 := Aggregate(nil, testAsOf, domain.Window90)

	signals := extractSubscriptionSignals(agg90, nil, testLogger())

	if !signals.True("subscription_share_undefined") {
		t.Error("expected subscription_share_undefined flag with zero spend")
	}
	if _, ok := signals.Number("subscription_share"); ok {
		t.Error("undefined share must not read as a usable number")
	}
}
