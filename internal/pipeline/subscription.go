package pipeline

import (
	"log/slog"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

// extractSubscriptionSignals derives subscription signals from the
// recurrence detector's output. Both inputs are 90-day figures even when
// the caller is building a 30- or 180-day signal set, matching the
// window-invariant cadence policy.
func extractSubscriptionSignals(agg90 *WindowAggregates, recurring []RecurringMerchant, logger *slog.Logger) domain.SignalSet {
	signals := domain.SignalSet{}

	monthlyTotal := decimal.Zero
	for _, rm := range recurring {
		monthlyTotal = monthlyTotal.Add(rm.MonthlyEquivalent())
	}
	monthlyTotal = monthlyTotal.Round(2)

	signals["recurring_merchant_count"] = domain.Number(float64(len(recurring)))
	totalFloat, _ := monthlyTotal.Float64()
	signals["monthly_recurring_total"] = domain.Number(totalFloat)

	if agg90.TotalSpend.IsZero() {
		signals["subscription_share"] = domain.Number(0)
		signals["subscription_share_undefined"] = domain.Flag(true)
		logger.Warn("No spend in 90-day window, subscription share defined as 0")
		return signals
	}

	share, _ := monthlyTotal.Div(agg90.TotalSpend).Float64()
	signals["subscription_share"] = domain.Number(share)

	return signals
}
