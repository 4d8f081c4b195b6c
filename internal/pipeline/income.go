package pipeline

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"spendsense/internal/domain"

	"github.com/shopspring/decimal"
)

// payrollMarkers are merchant-name fragments that identify payroll-like
// deposits. An employer name supplied by the caller is matched in
// addition to these.
var payrollMarkers = []string{
	"payroll",
	"direct deposit",
	"dir dep",
	"salary",
	"paycheck",
	"wages",
}

// Deposit-frequency bands: center gap in days and tolerance, matched by
// nearest center first (same philosophy as cadence detection).
type frequencyBand struct {
	name      string
	center    float64
	tolerance float64
}

var frequencyBands = []frequencyBand{
	{"weekly", 7, 1},
	{"biweekly", 14, 2},
	{"semi_monthly", 15.2, 2},
	{"monthly", 30, 3},
}

// extractIncomeSignals detects payroll-like deposits in the window and
// derives frequency, variability and cash-flow-buffer signals. Fewer than
// two detected deposits means no cadence can be established: the
// frequency is flagged irregular and the gap signal undefined.
func extractIncomeSignals(agg, agg90 *WindowAggregates, accounts []*domain.Account, employerName string, logger *slog.Logger) domain.SignalSet {
	signals := domain.SignalSet{}

	deposits := payrollDeposits(agg, employerName)
	signals["payroll_deposit_count"] = domain.Number(float64(len(deposits)))

	if len(deposits) == 0 {
		signals["payroll_markers_missing"] = domain.Flag(true)
		logger.Warn("No payroll-like deposits detected in window",
			slog.String("window", agg.Window.Label()))
	}

	irregular := true
	if len(deposits) >= 2 {
		gap := medianDepositGap(deposits)
		signals["income_deposit_gap_days"] = domain.Number(gap)
		if band, ok := classifyFrequency(gap); ok {
			irregular = false
			signals["income_frequency_days"] = domain.Number(band.center)
		}
	} else {
		signals["income_deposit_gap_days"] = domain.Number(0)
		signals["income_deposit_gap_days_undefined"] = domain.Flag(true)
	}
	signals["income_irregular"] = domain.Flag(irregular)

	if cv, ok := coefficientOfVariation(deposits); ok {
		signals["income_variability"] = domain.Number(cv)
	} else {
		signals["income_variability"] = domain.Number(0)
		signals["income_variability_undefined"] = domain.Flag(true)
	}

	monthlyIncome := decimal.Zero
	for _, tx := range deposits {
		monthlyIncome = monthlyIncome.Add(tx.Amount)
	}
	income, _ := monthlyIncome.Float64()
	signals["monthly_income"] = domain.Number(income / agg.Window.Months())

	_ = signals.Merge(cashFlowBuffer(agg90, accounts, logger))

	return signals
}

func payrollDeposits(agg *WindowAggregates, employerName string) []*domain.Transaction {
	employer := strings.ToLower(strings.TrimSpace(employerName))

	var deposits []*domain.Transaction
	for _, tx := range agg.Transactions {
		if !tx.IsCredit() {
			continue
		}
		merchant := strings.ToLower(tx.Merchant)
		if employer != "" && strings.Contains(merchant, employer) {
			deposits = append(deposits, tx)
			continue
		}
		for _, marker := range payrollMarkers {
			if strings.Contains(merchant, marker) {
				deposits = append(deposits, tx)
				break
			}
		}
	}
	return deposits
}

func medianDepositGap(deposits []*domain.Transaction) float64 {
	gaps := make([]float64, 0, len(deposits)-1)
	for i := 1; i < len(deposits); i++ {
		gaps = append(gaps, float64(daysBetween(deposits[i-1].PostedDate, deposits[i].PostedDate)))
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}

func classifyFrequency(medianGap float64) (frequencyBand, bool) {
	best := frequencyBands[0]
	bestDist := math.Abs(medianGap - best.center)
	for _, band := range frequencyBands[1:] {
		if d := math.Abs(medianGap - band.center); d < bestDist {
			best, bestDist = band, d
		}
	}
	if bestDist <= best.tolerance {
		return best, true
	}
	return frequencyBand{}, false
}

func coefficientOfVariation(deposits []*domain.Transaction) (float64, bool) {
	if len(deposits) < 2 {
		return 0, false
	}

	var sum float64
	amounts := make([]float64, len(deposits))
	for i, tx := range deposits {
		amounts[i], _ = tx.Amount.Float64()
		sum += amounts[i]
	}
	mean := sum / float64(len(amounts))
	if mean == 0 {
		return 0, false
	}

	var variance float64
	for _, a := range amounts {
		variance += (a - mean) * (a - mean)
	}
	variance /= float64(len(amounts))

	return math.Sqrt(variance) / mean, true
}

func cashFlowBuffer(agg90 *WindowAggregates, accounts []*domain.Account, logger *slog.Logger) domain.SignalSet {
	signals := domain.SignalSet{}

	checkingBalance := decimal.Zero
	for _, acc := range accounts {
		if acc.Type == domain.AccountChecking {
			checkingBalance = checkingBalance.Add(acc.Balance)
		}
	}

	avgMonthlyExpenses := agg90.TotalSpend.Div(three)
	if avgMonthlyExpenses.IsZero() {
		signals["cash_flow_buffer"] = domain.Number(coverageCap)
		signals["cash_flow_buffer_capped"] = domain.Flag(true)
		logger.Warn("No expenses in 90-day window, cash flow buffer capped")
		return signals
	}

	buffer, _ := checkingBalance.Div(avgMonthlyExpenses).Float64()
	if buffer > coverageCap {
		buffer = coverageCap
		signals["cash_flow_buffer_capped"] = domain.Flag(true)
	}
	signals["cash_flow_buffer"] = domain.Number(buffer)

	return signals
}
