package pipeline

import (
	"log/slog"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

// Coverage tier boundaries, in months of expenses.
const (
	CoverageExcellent = 6.0
	CoverageGood      = 3.0
	CoverageBuilding  = 1.0
)

// coverageCap bounds the coverage-months signal when expenses are zero,
// keeping downstream thresholding well-defined instead of producing an
// unbounded float.
const coverageCap = 120.0

var three = decimal.NewFromInt(3)

// extractSavingsSignals computes net inflow for the given window plus the
// 90-day growth rate and expense-coverage figures. The prior balance is
// reconstructed as current balance minus 90-day net inflow, since the
// feed carries only a current balance snapshot.
func extractSavingsSignals(agg, agg90 *WindowAggregates, accounts []*domain.Account, logger *slog.Logger) domain.SignalSet {
	signals := domain.SignalSet{}

	savingsIDs := make(map[string]struct{})
	savingsBalance := decimal.Zero
	for _, acc := range accounts {
		if acc.Type == domain.AccountSavings {
			savingsIDs[acc.ID] = struct{}{}
			savingsBalance = savingsBalance.Add(acc.Balance)
		}
	}

	netInflow := savingsNetInflow(agg, savingsIDs)
	inflowFloat, _ := netInflow.Float64()
	signals["savings_net_inflow"] = domain.Number(inflowFloat)

	// Growth over the trailing 90 days, regardless of the caller's window.
	netInflow90 := savingsNetInflow(agg90, savingsIDs)
	priorBalance := savingsBalance.Sub(netInflow90)
	if priorBalance.IsZero() {
		signals["savings_growth_rate_90d"] = domain.Number(0)
		signals["savings_growth_rate_90d_undefined"] = domain.Flag(true)
		logger.Warn("Prior savings balance is zero, growth rate defined as 0")
	} else {
		growth, _ := savingsBalance.Sub(priorBalance).Div(priorBalance).Float64()
		signals["savings_growth_rate_90d"] = domain.Number(growth)
	}

	avgMonthlyExpenses := agg90.TotalSpend.Div(three)
	expensesFloat, _ := avgMonthlyExpenses.Float64()
	signals["avg_monthly_expenses"] = domain.Number(expensesFloat)

	if avgMonthlyExpenses.IsZero() {
		signals["coverage_months"] = domain.Number(coverageCap)
		signals["coverage_months_capped"] = domain.Flag(true)
		logger.Warn("No expenses in 90-day window, coverage months capped",
			slog.Float64("cap", coverageCap))
	} else {
		coverage, _ := savingsBalance.Div(avgMonthlyExpenses).Float64()
		if coverage > coverageCap {
			coverage = coverageCap
			signals["coverage_months_capped"] = domain.Flag(true)
		}
		signals["coverage_months"] = domain.Number(coverage)
	}

	return signals
}

func savingsNetInflow(agg *WindowAggregates, savingsIDs map[string]struct{}) decimal.Decimal {
	net := decimal.Zero
	for _, tx := range agg.Transactions {
		if _, ok := savingsIDs[tx.AccountID]; ok {
			net = net.Add(tx.Amount)
		}
	}
	return net
}

// CoverageTier labels a coverage-months figure for user-facing copy.
func CoverageTier(months float64) string {
	switch {
	case months >= CoverageExcellent:
		return "Excellent"
	case months >= CoverageGood:
		return "Good"
	case months >= CoverageBuilding:
		return "Building"
	default:
		return "Low"
	}
}
