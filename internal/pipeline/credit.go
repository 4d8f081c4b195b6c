package pipeline

import (
	"log/slog"
	"strings"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

// Utilization tier boundaries.
const (
	UtilizationHigh   = 0.50
	UtilizationMedium = 0.30
)

// minimumPaymentSlack is how close (in dollars) a payment must be to the
// minimum to count as minimum-only.
var minimumPaymentSlack = decimal.NewFromInt(5)

// extractCreditSignals computes per-account utilization plus the
// interest, minimum-payment and overdue flags. A zero credit limit is a
// data-quality condition: utilization is defined as 0 and flagged, never
// a division error.
func extractCreditSignals(agg *WindowAggregates, accounts []*domain.Account, logger *slog.Logger) domain.SignalSet {
	signals := domain.SignalSet{}

	maxUtilization := 0.0
	hasCreditCard := false
	minimumPaymentOnly := false
	overdue := false

	for _, acc := range accounts {
		if !acc.IsCreditCard() {
			continue
		}
		hasCreditCard = true

		utilization := 0.0
		if acc.CreditLimit == nil || acc.CreditLimit.IsZero() {
			signals["credit_utilization_"+acc.ID+"_undefined"] = domain.Flag(true)
			logger.Warn("Credit limit unavailable, utilization defined as 0",
				slog.String("account_id", acc.ID))
		} else {
			utilization, _ = acc.Balance.Abs().Div(acc.CreditLimit.Abs()).Float64()
		}
		signals["credit_utilization_"+acc.ID] = domain.Number(utilization)
		if utilization > maxUtilization {
			maxUtilization = utilization
		}

		if acc.MinimumPaymentAmount.IsPositive() &&
			acc.LastPaymentAmount.Sub(acc.MinimumPaymentAmount).Abs().LessThanOrEqual(minimumPaymentSlack) {
			minimumPaymentOnly = true
		}

		if acc.IsOverdue {
			overdue = true
		}
	}

	if hasCreditCard {
		signals["credit_utilization_max"] = domain.Number(maxUtilization)
	}
	signals["minimum_payment_only"] = domain.Flag(minimumPaymentOnly)
	signals["interest_charged"] = domain.Flag(hasInterestCharge(agg))
	signals["has_late_payments"] = domain.Flag(overdue)

	return signals
}

func hasInterestCharge(agg *WindowAggregates) bool {
	for _, tx := range agg.Transactions {
		if !tx.IsDebit() {
			continue
		}
		category := strings.ToLower(tx.Category)
		merchant := strings.ToLower(tx.Merchant)
		if strings.Contains(category, "interest") ||
			strings.Contains(category, "finance charge") ||
			strings.Contains(merchant, "interest") ||
			strings.Contains(merchant, "finance charge") {
			return true
		}
	}
	return false
}

// UtilizationTier labels a utilization ratio for user-facing copy.
func UtilizationTier(utilization float64) string {
	switch {
	case utilization >= UtilizationHigh:
		return "High"
	case utilization >= UtilizationMedium:
		return "Medium"
	default:
		return "Low"
	}
}
