package pipeline

import (
	"math"
	"testing"

	"spendsense/internal/domain"
)

func TestExtractIncomeSignals_BiweeklyPayroll(t *testing.T) {
	var txs []*domain.Transaction
	for i, day := range []int{3, 17, 31, 45, 59, 73, 87} {
		txs = append(txs, testTx("p"+string(rune('a'+i)), day, 1800, "Acme Corp Payroll", "income"))
	}
	agg := Aggregate(txs, testAsOf, domain.Window90)

	signals := extractIncomeSignals(agg, agg, nil, "", testLogger())

	count, _ := signals.Number("payroll_deposit_count")
	if count != 7 {
		t.Fatalf("expected 7 payroll deposits, got %f", count)
	}
	if signals.True("income_irregular") {
		t.Error("a steady biweekly cadence must not be irregular")
	}
	freq, ok := signals.Number("income_frequency_days")
	if !ok || freq != 14 {
		t.Errorf("expected 14-day frequency, got %f (ok=%t)", freq, ok)
	}
	income, _ := signals.Number("monthly_income")
	if math.Abs(income-7*1800/3.0) > 1e-9 {
		t.Errorf("expected monthly income 4200, got %f", income)
	}
	cv, ok := signals.Number("income_variability")
	if !ok || cv != 0 {
		t.Errorf("identical deposits must have zero variability, got %f (ok=%t)", cv, ok)
	}
}

func TestExtractIncomeSignals_EmployerNameMatch(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("p1", 10, 2500, "GLOBEX LLC DEP", "income"),
		testTx("p2", 40, 2500, "GLOBEX LLC DEP", "income"),
	}
	agg := Aggregate(txs, testAsOf, domain.Window90)

	signals := extractIncomeSignals(agg, agg, nil, "Globex", testLogger())

	count, _ := signals.Number("payroll_deposit_count")
	if count != 2 {
		t.Errorf("expected employer-matched deposits counted, got %f", count)
	}
}

func TestExtractIncomeSignals_NoDeposits(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("t1", 5, -50, "Grocer", "groceries"),
	}
	agg := Aggregate(txs, testAsOf, domain.Window90)

	signals := extractIncomeSignals(agg, agg, nil, "", testLogger())

	if !signals.True("payroll_markers_missing") {
		t.Error("expected payroll_markers_missing flag")
	}
	if !signals.True("income_irregular") {
		t.Error("no cadence must read as irregular")
	}
	if _, ok := signals.Number("income_deposit_gap_days"); ok {
		t.Error("gap signal must be undefined without two deposits")
	}
	if _, ok := signals.Number("income_variability"); ok {
		t.Error("variability must be undefined without two deposits")
	}
}

func TestExtractIncomeSignals_IrregularGaps(t *testing.T) {
	txs := []*domain.Transaction{
		testTx("p1", 4, 900, "Client Paycheck", "income"),
		testTx("p2", 26, 1400, "Client Paycheck", "income"),
		testTx("p3", 74, 600, "Client Paycheck", "income"),
	}
	agg := Aggregate(txs, testAsOf, domain.Window90)

	signals := extractIncomeSignals(agg, agg, nil, "", testLogger())

	if !signals.True("income_irregular") {
		t.Error("gaps outside every band must read as irregular")
	}
	gap, ok := signals.Number("income_deposit_gap_days")
	if !ok || gap != 35 {
		t.Errorf("expected median gap 35, got %f (ok=%t)", gap, ok)
	}
}

func TestCashFlowBuffer_Capped(t *testing.T) {
	agg90 := Aggregate(nil, testAsOf, domain.Window90)

	signals := cashFlowBuffer(agg90, nil, testLogger())

	buffer, _ := signals.Number("cash_flow_buffer")
	if buffer != coverageCap {
		t.Errorf("expected buffer capped at %f, got %f", coverageCap, buffer)
	}
	if !signals.True("cash_flow_buffer_capped") {
		t.Error("expected cash_flow_buffer_capped flag")
	}
}
