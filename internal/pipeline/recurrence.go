package pipeline

import (
	"time"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
)

// Cadence tolerance bands, in days between consecutive charges.
const (
	monthlyGapMin = 27
	monthlyGapMax = 33
	weeklyGapMin  = 6
	weeklyGapMax  = 8

	minOccurrences = 3
)

// weeksPerMonth normalizes a weekly average to a monthly figure.
var weeksPerMonth = decimal.NewFromFloat(4.33)

type RecurringMerchant struct {
	Merchant      string          `json:"merchant_name"`
	Cadence       Cadence         `json:"cadence"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	Occurrences   int             `json:"occurrence_count"`
}

// MonthlyEquivalent is the merchant's charge normalized to a monthly
// amount (weekly cadences scaled by 4.33).
func (m *RecurringMerchant) MonthlyEquivalent() decimal.Decimal {
	if m.Cadence == CadenceWeekly {
		return m.AverageAmount.Mul(weeksPerMonth)
	}
	return m.AverageAmount
}

// DetectRecurring classifies each merchant in the aggregates as recurring
// or not. Cadence detection is always evaluated against the 90-day window
// regardless of which window the caller is computing signals for; short
// windows cannot hold three monthly charges and long windows drift, so
// the check is window-invariant.
func DetectRecurring(agg *WindowAggregates) []RecurringMerchant {
	var out []RecurringMerchant

	for _, merchant := range agg.Merchants() {
		if rm, ok := classifyMerchant(merchant, agg.ByMerchant[merchant]); ok {
			out = append(out, rm)
		}
	}

	return out
}

func classifyMerchant(merchant string, txs []*domain.Transaction) (RecurringMerchant, bool) {
	var charges []*domain.Transaction
	for _, tx := range txs {
		if tx.IsDebit() {
			charges = append(charges, tx)
		}
	}
	if len(charges) < minOccurrences {
		return RecurringMerchant{}, false
	}

	var monthlyGaps, weeklyGaps int
	totalGaps := len(charges) - 1
	for i := 1; i < len(charges); i++ {
		gap := daysBetween(charges[i-1].PostedDate, charges[i].PostedDate)
		switch {
		case gap >= monthlyGapMin && gap <= monthlyGapMax:
			monthlyGaps++
		case gap >= weeklyGapMin && gap <= weeklyGapMax:
			weeklyGaps++
		}
	}

	// A majority of consecutive gaps must fall in one band. There is no
	// fallback "irregular recurring" bucket.
	var cadence Cadence
	switch {
	case monthlyGaps*2 > totalGaps:
		cadence = CadenceMonthly
	case weeklyGaps*2 > totalGaps:
		cadence = CadenceWeekly
	default:
		return RecurringMerchant{}, false
	}

	total := decimal.Zero
	for _, tx := range charges {
		total = total.Add(tx.Spend())
	}
	avg := total.Div(decimal.NewFromInt(int64(len(charges)))).Round(2)

	return RecurringMerchant{
		Merchant:      merchant,
		Cadence:       cadence,
		AverageAmount: avg,
		Occurrences:   len(charges),
	}, true
}

func daysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
